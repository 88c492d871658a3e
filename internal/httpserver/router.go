package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"provtrack/internal/auth"
	"provtrack/internal/config"
	"provtrack/internal/httpserver/handlers"
	"provtrack/internal/middleware"
	"provtrack/internal/provenance"
	"provtrack/internal/registry"
)

// NewRouter wires the full API surface. Mutating supply-chain routes sit
// behind bearer auth; role and ownership checks live in the services, not in
// the router, so a denied call yields a domain error instead of a generic 403.
func NewRouter(db *gorm.DB, lg *zap.SugaredLogger, cfg *config.Config) http.Handler {
	reg := registry.New(db, lg, cfg.AdminPrincipal)
	svc := provenance.New(db, lg, cfg.AdminPrincipal)

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer, chimw.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.Post("/v1/auth/login", handlers.Login(db, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(db))
		protected.Get("/v1/me", handlers.Me(db, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(db))

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireAdmin(cfg.AdminPrincipal))
			admin.Post("/v1/admin/accounts", handlers.CreateAccount(db, lg))
			admin.Post("/v1/admin/roles", handlers.AssignRole(reg, lg))
			admin.Post("/v1/admin/service-centers", handlers.AddServiceCenter(reg, lg))
		})

		protected.Post("/v1/products", handlers.RegisterProduct(svc, lg))
		protected.Post("/v1/products/{id}/transfer", handlers.TransferToRetailer(svc, lg))
		protected.Post("/v1/products/{id}/sell", handlers.SellToCustomer(svc, lg))
		protected.Post("/v1/products/{id}/resell", handlers.ResellProduct(svc, lg))
		protected.Post("/v1/products/{id}/visibility", handlers.SetProductVisibility(svc, lg))
		protected.Post("/v1/products/{id}/history/{seq}/visibility", handlers.SetRecordVisibility(svc, lg))
		protected.Post("/v1/products/{id}/claims/{claimId}/visibility", handlers.SetClaimVisibility(svc, lg))

		protected.Post("/v1/products/{id}/claims", handlers.SubmitWarrantyClaim(svc, lg))
		protected.Post("/v1/products/{id}/claims/{claimId}/process", handlers.ProcessWarrantyClaim(svc, lg))
		protected.Post("/v1/products/{id}/service-log", handlers.LogServiceAction(svc, lg))

		protected.Get("/v1/products/{id}", handlers.GetProductDetails(svc, lg))
		protected.Get("/v1/products/{id}/history", handlers.GetOwnershipHistory(svc, lg))
		protected.Get("/v1/products/{id}/claims", handlers.GetWarrantyHistory(svc, lg))
		protected.Get("/v1/products/{id}/warranty", handlers.CheckWarrantyStatus(svc, lg))
		protected.Post("/v1/products/{id}/warranty/refresh", handlers.RefreshWarrantyStatus(svc, lg))
		protected.Get("/v1/products/{id}/ownership", handlers.VerifyProductOwnership(svc, lg))
		protected.Get("/v1/users/{principal}/products", handlers.GetUserProducts(svc, lg))
		protected.Get("/v1/roles/{principal}", handlers.GetPrincipalRole(reg, lg))
		protected.Get("/v1/events", handlers.ListEvents(svc, lg))
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
