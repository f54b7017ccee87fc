package handlers

import (
	"encoding/json"
	"net/http"

	"p9e.in/apex/middleware"
)

// VerifyMaterials replaces the job's material list with the field manager's
// verified lines.
func VerifyMaterials(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var lines []VerifiedLine
	if err := json.NewDecoder(r.Body).Decode(&lines); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	job, err := NewMaterialEngine(getStore()).VerifyMaterials(r.Context(), jobID, middleware.GetRole(r), lines)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":             job,
		"material_status": job.MaterialStatus(),
	})
}

// ConfirmDelivery records the customer's per-line delivery report.
func ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var conf DeliveryConfirmation
	if err := json.NewDecoder(r.Body).Decode(&conf); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	claims := middleware.GetClaims(r)
	confirmedBy := ""
	if claims != nil {
		confirmedBy = claims.Name
	}
	job, err := NewMaterialEngine(getStore()).ConfirmDelivery(r.Context(), jobID, confirmedBy, conf)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":             job,
		"material_status": job.MaterialStatus(),
	})
}

// ListDeliveries returns the job's delivery confirmations, newest first.
func ListDeliveries(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	deliveries, err := getStore().DeliveriesForJob(r.Context(), jobID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deliveries)
}
