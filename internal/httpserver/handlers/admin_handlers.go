package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"provtrack/internal/auth"
	"provtrack/internal/models"
	"provtrack/internal/registry"
)

// CreateAccount provisions a login account for a new principal. The optional
// principal field pins the id; otherwise one is generated.
func CreateAccount(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Principal string `json:"principal"`
			Email     string `json:"email"`
			Password  string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			http.Error(w, "email/password required", http.StatusBadRequest)
			return
		}
		if req.Principal == "" {
			req.Principal = uuid.NewString()
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u := models.User{
			ID: req.Principal, Email: req.Email, PasswordHash: hash,
			IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		if err := db.Create(&u).Error; err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		lg.Infow("account created", "principal", u.ID)
		respondJSON(w, map[string]any{"principal": u.ID, "email": u.Email})
	}
}

func AssignRole(reg *registry.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Principal string      `json:"principal"`
			Role      models.Role `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := reg.AssignRole(auth.Principal(r.Context()), req.Principal, req.Role); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"principal": req.Principal, "role": req.Role})
	}
}

func AddServiceCenter(reg *registry.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Principal string `json:"principal"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := reg.AddServiceCenter(auth.Principal(r.Context()), req.Principal); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"principal": req.Principal, "role": models.RoleServiceCenter})
	}
}
