package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"p9e.in/apex/config"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// pathUUID pulls a uuid path variable out of the mux route.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

// writeWorkflowError maps the engine error taxonomy onto HTTP statuses.
// Reason-carrying errors keep their full lists in the body so the caller
// sees every blocker at once.
func writeWorkflowError(w http.ResponseWriter, err error) {
	var (
		reqErr   *models.RequirementsNotMetError
		gateErr  *models.PayoutBlockedError
		transErr *models.InvalidTransitionError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, models.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrAlreadyAssigned), errors.Is(err, models.ErrComplianceBlocked):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &transErr):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": transErr.Error(),
			"from":  transErr.From,
			"to":    transErr.To,
		})
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "requirements not met",
			"missing": reqErr.Missing,
		})
	case errors.As(err, &gateErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "payout blocked",
			"reasons": gateErr.Reasons,
		})
	default:
		config.GetLogger().WithError(err).Error("workflow operation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// getStore returns the process-wide store backed by the configured database.
var defaultStore store.Store

func getStore() store.Store {
	if defaultStore == nil {
		defaultStore = store.NewGormStore(config.DB)
	}
	return defaultStore
}

// SetStore swaps the backing store. Used by tests.
func SetStore(s store.Store) {
	defaultStore = s
}
