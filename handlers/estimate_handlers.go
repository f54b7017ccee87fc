package handlers

import (
	"encoding/json"
	"net/http"

	"p9e.in/apex/middleware"
)

// BuildQuote creates or refreshes the job's draft estimate.
func BuildQuote(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	est, err := NewEstimateEngine(getStore()).BuildQuote(r.Context(), jobID, middleware.GetRole(r), req)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// ApproveQuote records the customer's one-time signature on the estimate.
func ApproveQuote(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	est, err := NewEstimateEngine(getStore()).ApproveQuote(r.Context(), jobID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// GetEstimate returns the job's estimate.
func GetEstimate(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	est, err := NewEstimateEngine(getStore()).ForJob(r.Context(), jobID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}
