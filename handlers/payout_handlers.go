package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"p9e.in/apex/middleware"
)

// EvaluatePayout runs the payout gate without side effects so the admin sees
// every blocking reason before acting.
func EvaluatePayout(w http.ResponseWriter, r *http.Request) {
	payoutID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid payout id", http.StatusBadRequest)
		return
	}
	result, err := NewPayoutEngine(getStore()).Evaluate(r.Context(), payoutID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ApprovePayout settles a pending payout. Admin only.
func ApprovePayout(w http.ResponseWriter, r *http.Request) {
	payoutID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid payout id", http.StatusBadRequest)
		return
	}
	payout, err := NewPayoutEngine(getStore()).Approve(r.Context(), payoutID, middleware.GetRole(r))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payout)
}

type declineRequest struct {
	Reason string `json:"reason"`
}

// DeclinePayout declines a pending payout with a mandatory reason. Admin
// only.
func DeclinePayout(w http.ResponseWriter, r *http.Request) {
	payoutID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid payout id", http.StatusBadRequest)
		return
	}
	var req declineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	payout, err := NewPayoutEngine(getStore()).Decline(r.Context(), payoutID, middleware.GetRole(r), req.Reason)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payout)
}

// ListPayouts returns payouts, optionally scoped to a job or contractor.
func ListPayouts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s := getStore()
	if jid := q.Get("job_id"); jid != "" {
		jobID, err := uuid.Parse(jid)
		if err != nil {
			http.Error(w, "invalid job_id", http.StatusBadRequest)
			return
		}
		payouts, err := s.PayoutsForJob(r.Context(), jobID)
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payouts)
		return
	}
	if cid := q.Get("contractor_id"); cid != "" {
		contractorID, err := uuid.Parse(cid)
		if err != nil {
			http.Error(w, "invalid contractor_id", http.StatusBadRequest)
			return
		}
		payouts, err := s.PayoutsForContractor(r.Context(), contractorID)
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payouts)
		return
	}
	payouts, err := s.Payouts(r.Context())
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payouts)
}
