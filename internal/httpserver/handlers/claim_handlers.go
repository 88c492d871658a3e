package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"provtrack/internal/auth"
	"provtrack/internal/models"
	"provtrack/internal/provenance"
)

func SubmitWarrantyClaim(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		productID := chi.URLParam(r, "id")
		claimID, err := svc.SubmitWarrantyClaim(auth.Principal(r.Context()), productID, req.Description)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"product_id": productID, "claim_id": claimID, "status": models.ClaimPending})
	}
}

func ProcessWarrantyClaim(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status       models.ClaimStatus `json:"status"`
			ServiceNotes string             `json:"service_notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		claimID, err := strconv.Atoi(chi.URLParam(r, "claimId"))
		if err != nil {
			http.Error(w, "invalid claim id", http.StatusBadRequest)
			return
		}
		productID := chi.URLParam(r, "id")
		if err := svc.ProcessWarrantyClaim(auth.Principal(r.Context()), productID, claimID, req.Status, req.ServiceNotes); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"product_id": productID, "claim_id": claimID, "status": req.Status})
	}
}

func LogServiceAction(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Description   string `json:"description"`
			PartsReplaced string `json:"parts_replaced"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		productID := chi.URLParam(r, "id")
		claimID, err := svc.LogServiceAction(auth.Principal(r.Context()), productID, req.Description, req.PartsReplaced)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"product_id": productID, "claim_id": claimID, "status": models.ClaimCompleted})
	}
}
