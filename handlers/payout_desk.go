package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"p9e.in/apex/config"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
)

// PayoutEngine evaluates and settles contractor payouts. Approval is the
// only path that moves money; it re-checks the full gate inside the same
// unit of work that flips the payout, so a dispute raised a moment earlier
// can never slip through.
type PayoutEngine struct {
	store store.Store
	log   *logrus.Logger
}

// NewPayoutEngine creates a payout engine over the given store.
func NewPayoutEngine(s store.Store) *PayoutEngine {
	return &PayoutEngine{store: s, log: config.GetLogger()}
}

// GateResult is the pure gate evaluation for display before the admin acts.
type GateResult struct {
	PayoutID uuid.UUID `json:"payout_id"`
	JobID    uuid.UUID `json:"job_id"`
	Eligible bool      `json:"eligible"`
	Reasons  []string  `json:"reasons,omitempty"`
}

// Evaluate runs the payout gate without side effects and returns every
// failing clause.
func (e *PayoutEngine) Evaluate(ctx context.Context, payoutID uuid.UUID) (*GateResult, error) {
	payout, err := e.store.Payout(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	job, err := e.store.Job(ctx, payout.JobID)
	if err != nil {
		return nil, err
	}
	openDisputes, err := e.store.OpenFlaggedCount(ctx, payout.JobID)
	if err != nil {
		return nil, err
	}
	reasons := models.PayoutBlockReasons(job, openDisputes)
	return &GateResult{
		PayoutID: payout.ID,
		JobID:    job.ID,
		Eligible: len(reasons) == 0,
		Reasons:  reasons,
	}, nil
}

// Approve settles a processing payout. Admin only. The gate is re-evaluated
// inside the transaction; if any clause fails, the complete reason list comes
// back and neither the payout nor the job changes. On success the payout is
// Paid with a payment date and the job advances to Paid.
func (e *PayoutEngine) Approve(ctx context.Context, payoutID uuid.UUID, actorRole string) (*models.ContractorPayout, error) {
	if actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	var out *models.ContractorPayout
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		payout, err := tx.Payout(ctx, payoutID)
		if err != nil {
			return err
		}
		if payout.Status != models.PayoutProcessing {
			return &models.InvalidTransitionError{
				Entity: "payout", From: string(payout.Status), To: string(models.PayoutPaid),
			}
		}
		job, err := tx.Job(ctx, payout.JobID)
		if err != nil {
			return err
		}
		openDisputes, err := tx.OpenFlaggedCount(ctx, payout.JobID)
		if err != nil {
			return err
		}
		if reasons := models.PayoutBlockReasons(job, openDisputes); len(reasons) > 0 {
			return &models.PayoutBlockedError{Reasons: reasons}
		}
		now := time.Now()
		payout.Status = models.PayoutPaid
		payout.PaymentDate = &now
		if err := tx.SavePayout(ctx, payout); err != nil {
			return err
		}
		if job.Status == models.JobComplete {
			job.Status = models.JobPaid
			if err := tx.SaveJob(ctx, job); err != nil {
				return err
			}
		}
		out = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"payout_id": payoutID,
		"job_id":    out.JobID,
		"amount":    out.Amount.String(),
	}).Info("payout approved")
	return out, nil
}

// Decline marks a processing payout Declined with a mandatory reason. The
// gate does not apply; an admin may always decline. The job stays Complete,
// payable once a corrected payout is raised.
func (e *PayoutEngine) Decline(ctx context.Context, payoutID uuid.UUID, actorRole, reason string) (*models.ContractorPayout, error) {
	if actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return nil, &models.RequirementsNotMetError{Missing: []string{"decline reason is required"}}
	}
	var out *models.ContractorPayout
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		payout, err := tx.Payout(ctx, payoutID)
		if err != nil {
			return err
		}
		if payout.Status != models.PayoutProcessing {
			return &models.InvalidTransitionError{
				Entity: "payout", From: string(payout.Status), To: string(models.PayoutDeclined),
			}
		}
		payout.Status = models.PayoutDeclined
		payout.DeclineReason = reason
		if err := tx.SavePayout(ctx, payout); err != nil {
			return err
		}
		out = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"payout_id": payoutID,
		"job_id":    out.JobID,
		"reason":    reason,
	}).Info("payout declined")
	return out, nil
}
