package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"p9e.in/apex/middleware"
	"p9e.in/apex/models"
)

// complianceSubject resolves which contractor a compliance call targets.
// Contractors operate on their own record; admins may name any contractor
// via the path.
func complianceSubject(r *http.Request) (uuid.UUID, error) {
	if raw, ok := mux.Vars(r)["contractorId"]; ok && raw != "" {
		return uuid.Parse(raw)
	}
	return uuid.Parse(middleware.GetUserID(r))
}

// GetCompliance returns the contractor's onboarding record.
func GetCompliance(w http.ResponseWriter, r *http.Request) {
	contractorID, err := complianceSubject(r)
	if err != nil {
		http.Error(w, "invalid contractor id", http.StatusBadRequest)
		return
	}
	c, err := NewComplianceEngine(getStore()).Get(r.Context(), contractorID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type documentRequest struct {
	Kind            DocumentKind `json:"kind"`
	Uploaded        bool         `json:"uploaded"`
	InsuranceExpiry *time.Time   `json:"insurance_expiry,omitempty"`
}

// SetComplianceDocument records a W9 or insurance upload.
func SetComplianceDocument(w http.ResponseWriter, r *http.Request) {
	contractorID, err := complianceSubject(r)
	if err != nil {
		http.Error(w, "invalid contractor id", http.StatusBadRequest)
		return
	}
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	c, err := NewComplianceEngine(getStore()).SetDocument(r.Context(), contractorID, req.Kind, req.Uploaded, req.InsuranceExpiry)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type agreementRequest struct {
	Kind   AgreementKind `json:"kind"`
	Signed bool          `json:"signed"`
}

// SetComplianceAgreement records a signature on one of the agreements.
func SetComplianceAgreement(w http.ResponseWriter, r *http.Request) {
	contractorID, err := complianceSubject(r)
	if err != nil {
		http.Error(w, "invalid contractor id", http.StatusBadRequest)
		return
	}
	var req agreementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	c, err := NewComplianceEngine(getStore()).SetAgreement(r.Context(), contractorID, req.Kind, req.Signed)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type overrideRequest struct {
	Status models.ComplianceStatus `json:"status"`
}

// OverrideCompliance forces the compliance status. Admin only; the override
// lasts until the next field change.
func OverrideCompliance(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathUUID(r, "contractorId")
	if err != nil {
		http.Error(w, "invalid contractor id", http.StatusBadRequest)
		return
	}
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	c, err := NewComplianceEngine(getStore()).OverrideStatus(r.Context(), contractorID, middleware.GetRole(r), req.Status)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListExpiringInsurance reports contractors whose insurance lapses within 30
// days.
func ListExpiringInsurance(w http.ResponseWriter, r *http.Request) {
	expiring, err := NewComplianceEngine(getStore()).InsuranceExpiringWithin(r.Context(), 30*24*time.Hour)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expiring)
}
