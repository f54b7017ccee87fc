package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"p9e.in/apex/config"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
)

// DisputeEngine is the register of flagged items: customer or contractor
// disputes and field-manager change orders. Raising always succeeds; only an
// admin resolves, and every open item blocks payout for its job.
type DisputeEngine struct {
	store store.Store
	log   *logrus.Logger
}

// NewDisputeEngine creates a dispute engine over the given store.
func NewDisputeEngine(s store.Store) *DisputeEngine {
	return &DisputeEngine{store: s, log: config.GetLogger()}
}

// RaiseRequest describes a new flagged item. AdditionalCost is meaningful
// only for change orders.
type RaiseRequest struct {
	Kind           models.FlaggedKind `json:"kind"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	Severity       string             `json:"severity,omitempty"`
	AdditionalCost decimal.Decimal    `json:"additional_cost"`
}

// Raise records a new open flagged item against the job. There is no
// precondition beyond the job existing; flagging a problem is never gated.
func (e *DisputeEngine) Raise(ctx context.Context, jobID uuid.UUID, actorRole, actorName string, req RaiseRequest) (*models.FlaggedItem, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, &models.RequirementsNotMetError{Missing: []string{"title is required"}}
	}
	kind := req.Kind
	if kind != models.FlaggedChangeOrder {
		kind = models.FlaggedDispute
	}
	severity := req.Severity
	if severity == "" {
		severity = "medium"
	}
	var out *models.FlaggedItem
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.Job(ctx, jobID); err != nil {
			return err
		}
		item := &models.FlaggedItem{
			JobID:          jobID,
			Kind:           kind,
			Status:         models.FlaggedOpen,
			Title:          req.Title,
			Description:    req.Description,
			Severity:       severity,
			AdditionalCost: req.AdditionalCost,
			CreatedByRole:  actorRole,
			CreatedBy:      actorName,
			CreatedDate:    time.Now(),
		}
		if err := tx.SaveFlaggedItem(ctx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"job_id":  jobID,
		"kind":    kind,
		"item_id": out.ID,
	}).Info("flagged item raised")
	return out, nil
}

// Resolve closes an open flagged item with a non-empty resolution note.
// Admin only. Resolving an already-resolved item is an invalid transition;
// the original resolution is never overwritten.
func (e *DisputeEngine) Resolve(ctx context.Context, itemID uuid.UUID, actorRole, actorName, resolution string) (*models.FlaggedItem, error) {
	if actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	if strings.TrimSpace(resolution) == "" {
		return nil, &models.RequirementsNotMetError{Missing: []string{"resolution note is required"}}
	}
	var out *models.FlaggedItem
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		item, err := tx.FlaggedItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status != models.FlaggedOpen {
			return &models.InvalidTransitionError{
				Entity: "flagged item", From: string(item.Status), To: string(models.FlaggedResolved),
			}
		}
		now := time.Now()
		item.Status = models.FlaggedResolved
		item.Resolution = resolution
		item.ResolvedBy = actorName
		item.ResolvedAt = &now
		if err := tx.SaveFlaggedItem(ctx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"item_id": itemID,
		"job_id":  out.JobID,
	}).Info("flagged item resolved")
	return out, nil
}

// HasOpenDispute reports whether any flagged item for the job is still open.
func (e *DisputeEngine) HasOpenDispute(ctx context.Context, jobID uuid.UUID) (bool, error) {
	count, err := e.store.OpenFlaggedCount(ctx, jobID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ForJob lists every flagged item for the job, newest first.
func (e *DisputeEngine) ForJob(ctx context.Context, jobID uuid.UUID) ([]models.FlaggedItem, error) {
	return e.store.FlaggedForJob(ctx, jobID)
}
