package handlers

import (
	"encoding/json"
	"net/http"

	"p9e.in/apex/middleware"
)

// RaiseDispute records a new dispute or change order against the job.
func RaiseDispute(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var req RaiseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	claims := middleware.GetClaims(r)
	role, name := "", ""
	if claims != nil {
		role, name = claims.Role, claims.Name
	}
	item, err := NewDisputeEngine(getStore()).Raise(r.Context(), jobID, role, name, req)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type resolveRequest struct {
	Resolution string `json:"resolution"`
}

// ResolveDispute closes an open flagged item. Admin only.
func ResolveDispute(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	claims := middleware.GetClaims(r)
	role, name := "", ""
	if claims != nil {
		role, name = claims.Role, claims.Name
	}
	item, err := NewDisputeEngine(getStore()).Resolve(r.Context(), itemID, role, name, req.Resolution)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ListDisputes returns the job's flagged items, newest first.
func ListDisputes(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	engine := NewDisputeEngine(getStore())
	items, err := engine.ForJob(r.Context(), jobID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	open, err := engine.HasOpenDispute(r.Context(), jobID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"has_open": open,
	})
}
