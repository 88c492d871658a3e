package main

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"provtrack/internal/auth"
	"provtrack/internal/config"
	"provtrack/internal/httpserver"
	"provtrack/internal/logger"
	"provtrack/internal/models"
)

func main() {
	lg := logger.New()
	defer lg.Sync()

	cfg, err := config.Load()
	if err != nil {
		lg.Fatalw("config load failed", "error", err)
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Session{}, &models.RoleAssignment{},
		&models.Product{}, &models.OwnershipRecord{}, &models.WarrantyClaim{},
		&models.OwnedProduct{}, &models.AuditEvent{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedAdmin(db, cfg, lg)

	router := httpserver.NewRouter(db, lg, cfg)
	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

// seedAdmin provisions the admin login account for the configured admin
// principal if it does not exist yet.
func seedAdmin(db *gorm.DB, cfg *config.Config, lg *zap.SugaredLogger) {
	var count int64
	db.Model(&models.User{}).Where("id = ?", cfg.AdminPrincipal).Count(&count)
	if count > 0 {
		return
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		lg.Fatalw("admin password hash failed", "error", err)
	}
	u := models.User{
		ID:           cfg.AdminPrincipal,
		Email:        strings.ToLower(cfg.AdminEmail),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&u).Error; err != nil {
		lg.Fatalw("admin seed failed", "error", err)
	}
	lg.Infow("seeded admin account", "principal", cfg.AdminPrincipal, "email", u.Email)
}
