package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"provtrack/internal/auth"
	"provtrack/internal/provenance"
	"provtrack/internal/registry"
)

func GetProductDetails(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.GetProductDetails(auth.Principal(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, d)
	}
}

func GetOwnershipHistory(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.GetOwnershipHistory(auth.Principal(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, records)
	}
}

func GetWarrantyHistory(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := svc.GetWarrantyHistory(auth.Principal(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, claims)
	}
}

func CheckWarrantyStatus(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.CheckWarrantyStatus(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, view)
	}
}

func RefreshWarrantyStatus(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "id")
		if err := svc.UpdateWarrantyStatus(auth.Principal(r.Context()), productID); err != nil {
			respondError(w, err)
			return
		}
		view, err := svc.CheckWarrantyStatus(productID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, view)
	}
}

func VerifyProductOwnership(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "id")
		owned, err := svc.VerifyProductOwnership(auth.Principal(r.Context()), productID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"product_id": productID, "owner": owned})
	}
}

func GetUserProducts(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := svc.GetUserProducts(chi.URLParam(r, "principal"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"principal": chi.URLParam(r, "principal"), "products": ids})
	}
}

func GetPrincipalRole(reg *registry.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := chi.URLParam(r, "principal")
		role, err := reg.RoleOf(principal)
		if err != nil {
			respondError(w, err)
			return
		}
		sc, err := reg.IsServiceCenter(principal)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"principal": principal, "role": role, "service_center": sc})
	}
}

// ListEvents returns recent audit events. The admin sees everything and may
// filter by product; other callers see their own trail.
func ListEvents(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		events, err := svc.ListEvents(auth.Principal(r.Context()), r.URL.Query().Get("product_id"), limit)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, events)
	}
}
