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
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var u models.User
		if err := db.First(&u, "email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Error; err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if !u.IsActive {
			http.Error(w, "account disabled", http.StatusUnauthorized)
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		jti := uuid.NewString()
		if err := db.Create(&models.Session{
			JTI:       jti,
			UserID:    u.ID,
			ExpiresAt: time.Now().Add(auth.TTL()),
			CreatedAt: time.Now(),
		}).Error; err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}
		tok, err := auth.Sign(u.ID, jti)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		lg.Infow("login", "principal", u.ID)
		respondJSON(w, map[string]any{"token": tok, "principal": u.ID})
	}
}

func Logout(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jti := auth.FromContext(r.Context()).JWTID
		now := time.Now()
		_ = db.Model(&models.Session{}).Where("jti = ?", jti).Update("revoked_at", &now).Error
		respondJSON(w, map[string]any{"revoked": true})
	}
}

func Me(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.Principal(r.Context())
		var u models.User
		if err := db.First(&u, "id = ?", principal).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var ra models.RoleAssignment
		role := models.RoleNone
		serviceAuthorized := false
		if err := db.First(&ra, "principal = ?", principal).Error; err == nil {
			role = ra.Role
			serviceAuthorized = ra.ServiceAuthorized
		}
		respondJSON(w, map[string]any{
			"id": u.ID, "email": u.Email, "is_active": u.IsActive,
			"role": role, "service_authorized": serviceAuthorized,
		})
	}
}
