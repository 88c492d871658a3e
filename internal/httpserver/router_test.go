package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"provtrack/internal/auth"
	"provtrack/internal/config"
	"provtrack/internal/models"
)

func newTestServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "router-test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Session{}, &models.RoleAssignment{},
		&models.Product{}, &models.OwnershipRecord{}, &models.WarrantyClaim{},
		&models.OwnedProduct{}, &models.AuditEvent{},
	))

	for _, principal := range []string{"admin", "maker", "shop", "carol", "fixit"} {
		hash, err := auth.HashPassword("pw-" + principal)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.User{
			ID: principal, Email: principal + "@example.com", PasswordHash: hash,
			IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}).Error)
	}

	cfg := &config.Config{
		AdminPrincipal: "admin",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	srv := httptest.NewServer(NewRouter(db, zap.NewNop().Sugar(), cfg))
	t.Cleanup(srv.Close)
	return srv, db
}

func login(t *testing.T, srv *httptest.Server, principal string) string {
	t.Helper()
	res := post(t, srv, "", "/v1/auth/login", map[string]any{
		"email": principal + "@example.com", "password": "pw-" + principal,
	})
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func post(t *testing.T, srv *httptest.Server, token, path string, payload any) *http.Response {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(b))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	return res
}

func get(t *testing.T, srv *httptest.Server, token, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	return res
}

func TestAPIFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	adminTok := login(t, srv, "admin")
	for principal, role := range map[string]models.Role{
		"maker": models.RoleManufacturer,
		"shop":  models.RoleRetailer,
		"carol": models.RoleCustomer,
	} {
		res := post(t, srv, adminTok, "/v1/admin/roles", map[string]any{"principal": principal, "role": role})
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	}
	res := post(t, srv, adminTok, "/v1/admin/service-centers", map[string]any{"principal": "fixit"})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	makerTok := login(t, srv, "maker")
	res = post(t, srv, makerTok, "/v1/products", map[string]any{
		"product_id": "tv-1", "serial_number": "SN-1", "model": "X100",
		"specifications": "55in", "warranty_days": 365, "max_claims": 2,
	})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// duplicate registration conflicts
	res = post(t, srv, makerTok, "/v1/products", map[string]any{
		"product_id": "tv-1", "warranty_days": 30, "max_claims": 1,
	})
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// customers cannot register products
	carolTok := login(t, srv, "carol")
	res = post(t, srv, carolTok, "/v1/products", map[string]any{
		"product_id": "tv-2", "warranty_days": 30, "max_claims": 1,
	})
	res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = post(t, srv, makerTok, "/v1/products/tv-1/transfer", map[string]any{"new_owner": "shop", "details": "wholesale"})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	shopTok := login(t, srv, "shop")
	res = post(t, srv, shopTok, "/v1/products/tv-1/sell", map[string]any{"new_owner": "carol", "details": "retail"})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// claim lifecycle over HTTP
	res = post(t, srv, carolTok, "/v1/products/tv-1/claims", map[string]any{"description": "dead pixels"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var claim struct {
		ClaimID int `json:"claim_id"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&claim))
	res.Body.Close()
	assert.Equal(t, 0, claim.ClaimID)

	fixitTok := login(t, srv, "fixit")
	res = post(t, srv, fixitTok, fmt.Sprintf("/v1/products/tv-1/claims/%d/process", claim.ClaimID),
		map[string]any{"status": "Approved", "service_notes": "panel replaced"})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// processing the same claim twice is rejected as an invalid state
	res = post(t, srv, fixitTok, fmt.Sprintf("/v1/products/tv-1/claims/%d/process", claim.ClaimID),
		map[string]any{"status": "Approved"})
	res.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	res = get(t, srv, carolTok, "/v1/products/tv-1/warranty")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var view struct {
		Status          string `json:"status"`
		RemainingClaims int    `json:"remaining_claims"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&view))
	res.Body.Close()
	assert.Equal(t, "Active", view.Status)
	assert.Equal(t, 1, view.RemainingClaims)

	res = get(t, srv, carolTok, "/v1/users/carol/products")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var owned struct {
		Products []string `json:"products"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&owned))
	res.Body.Close()
	assert.Equal(t, []string{"tv-1"}, owned.Products)
}

func TestVisibilityOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	adminTok := login(t, srv, "admin")
	for principal, role := range map[string]models.Role{
		"maker": models.RoleManufacturer,
		"shop":  models.RoleRetailer,
		"carol": models.RoleCustomer,
	} {
		res := post(t, srv, adminTok, "/v1/admin/roles", map[string]any{"principal": principal, "role": role})
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	}

	makerTok := login(t, srv, "maker")
	res := post(t, srv, makerTok, "/v1/products", map[string]any{
		"product_id": "tv-1", "serial_number": "SN-1", "model": "X100",
		"specifications": "55in", "warranty_days": 365, "max_claims": 2,
	})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	res = post(t, srv, makerTok, "/v1/products/tv-1/transfer", map[string]any{"new_owner": "shop"})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	shopTok := login(t, srv, "shop")
	res = post(t, srv, shopTok, "/v1/products/tv-1/sell", map[string]any{"new_owner": "carol"})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	carolTok := login(t, srv, "carol")
	res = post(t, srv, carolTok, "/v1/products/tv-1/visibility", map[string]any{"visible": false})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// a third party (the former retailer) gets redacted details, not an error
	res = get(t, srv, shopTok, "/v1/products/tv-1")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var d struct {
		SerialNumber string `json:"serial_number"`
		IsVisible    bool   `json:"is_visible"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&d))
	res.Body.Close()
	assert.Equal(t, "REDACTED", d.SerialNumber)
	assert.False(t, d.IsVisible)

	// the owner still sees everything
	res = get(t, srv, carolTok, "/v1/products/tv-1")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&d))
	res.Body.Close()
	assert.Equal(t, "SN-1", d.SerialNumber)
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	res := get(t, srv, "", "/v1/products/tv-1")
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// non-admin principals cannot reach admin routes
	tok := login(t, srv, "carol")
	res = post(t, srv, tok, "/v1/admin/roles", map[string]any{"principal": "carol", "role": "Manufacturer"})
	res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// logout revokes the session behind the token
	res = post(t, srv, tok, "/v1/auth/logout", map[string]any{})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	res = get(t, srv, tok, "/v1/me")
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	res, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
