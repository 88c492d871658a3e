package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"provtrack/internal/auth"
	"provtrack/internal/provenance"
)

func RegisterProduct(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in provenance.RegisterProductInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p, err := svc.RegisterProduct(auth.Principal(r.Context()), in)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, p)
	}
}

type transferReq struct {
	NewOwner string `json:"new_owner"`
	Details  string `json:"details"`
}

func TransferToRetailer(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return transferHandler(svc.TransferToRetailer)
}

func SellToCustomer(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return transferHandler(svc.SellToCustomer)
}

func ResellProduct(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return transferHandler(svc.ResellProduct)
}

func transferHandler(op func(caller, productID, newOwner, details string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transferReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		productID := chi.URLParam(r, "id")
		if err := op(auth.Principal(r.Context()), productID, req.NewOwner, req.Details); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"product_id": productID, "new_owner": req.NewOwner})
	}
}

type visibilityReq struct {
	Visible bool `json:"visible"`
}

func SetProductVisibility(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visibilityReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		productID := chi.URLParam(r, "id")
		if err := svc.SetProductVisibility(auth.Principal(r.Context()), productID, req.Visible); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"product_id": productID, "visible": req.Visible})
	}
}

func SetRecordVisibility(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visibilityReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
		if err != nil {
			http.Error(w, "invalid record sequence", http.StatusBadRequest)
			return
		}
		productID := chi.URLParam(r, "id")
		if err := svc.SetOwnershipRecordVisibility(auth.Principal(r.Context()), productID, seq, req.Visible); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"product_id": productID, "seq": seq, "visible": req.Visible})
	}
}

func SetClaimVisibility(svc *provenance.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visibilityReq
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
		if err := svc.SetClaimVisibility(auth.Principal(r.Context()), productID, claimID, req.Visible); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"product_id": productID, "claim_id": claimID, "visible": req.Visible})
	}
}
