package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"p9e.in/apex/config"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
)

// EstimateEngine produces the post-visit quote and takes the customer's
// one-time signature on it.
type EstimateEngine struct {
	store store.Store
	log   *logrus.Logger
}

// NewEstimateEngine creates an estimate engine over the given store.
func NewEstimateEngine(s store.Store) *EstimateEngine {
	return &EstimateEngine{store: s, log: config.GetLogger()}
}

// QuoteRequest carries the field manager's quote inputs.
type QuoteRequest struct {
	Hours            decimal.Decimal `json:"hours"`
	LaborRate        decimal.Decimal `json:"labor_rate"`
	MaterialEstimate decimal.Decimal `json:"material_estimate"`
	ScopeOfWork      string          `json:"scope_of_work,omitempty"`
}

// BuildQuote creates or refreshes the job's draft estimate from the FM's
// inputs. FM or admin only. A signed estimate is immutable; rebuilding it is
// rejected.
func (e *EstimateEngine) BuildQuote(ctx context.Context, jobID uuid.UUID, actorRole string, req QuoteRequest) (*models.Estimate, error) {
	if actorRole != models.RoleFM && actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	var missing []string
	if req.Hours.Sign() <= 0 {
		missing = append(missing, "hours must be positive")
	}
	if req.LaborRate.Sign() <= 0 {
		missing = append(missing, "labor rate must be positive")
	}
	if req.MaterialEstimate.Sign() < 0 {
		missing = append(missing, "material estimate cannot be negative")
	}
	if len(missing) > 0 {
		return nil, &models.RequirementsNotMetError{Missing: missing}
	}
	var out *models.Estimate
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		job, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		est, err := tx.EstimateForJob(ctx, jobID)
		if errors.Is(err, store.ErrNotFound) {
			est = &models.Estimate{JobID: jobID, Trade: job.Trade, Status: models.EstimateDraft}
		} else if err != nil {
			return err
		}
		if est.Status == models.EstimateCustomerSigned {
			return &models.InvalidTransitionError{
				Entity: "estimate", From: string(est.Status), To: string(models.EstimateDraft),
			}
		}
		est.Hours = req.Hours
		est.LaborRate = req.LaborRate
		est.MaterialEstimate = req.MaterialEstimate
		est.Price = models.QuoteTotal(req.Hours, req.LaborRate, req.MaterialEstimate)
		est.ScopeOfWork = req.ScopeOfWork
		if err := tx.SaveEstimate(ctx, est); err != nil {
			return err
		}
		out = est
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"job_id": jobID,
		"price":  out.Price.String(),
	}).Info("quote built")
	return out, nil
}

// ApproveQuote records the customer's signature on the draft estimate. The
// signature is one-time; a signed estimate rejects a second approval. When
// the site-visit gate is already clear the job advances Open -> InProgress
// in the same unit of work.
func (e *EstimateEngine) ApproveQuote(ctx context.Context, jobID uuid.UUID) (*models.Estimate, error) {
	var out *models.Estimate
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		est, err := tx.EstimateForJob(ctx, jobID)
		if err != nil {
			return err
		}
		if est.Status == models.EstimateCustomerSigned {
			return &models.InvalidTransitionError{
				Entity: "estimate", From: string(est.Status), To: string(models.EstimateCustomerSigned),
			}
		}
		now := time.Now()
		est.Status = models.EstimateCustomerSigned
		est.SignedAt = &now
		if err := tx.SaveEstimate(ctx, est); err != nil {
			return err
		}
		job, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status == models.JobOpen && job.VisitSatisfied() {
			job.Status = models.JobInProgress
			if err := tx.SaveJob(ctx, job); err != nil {
				return err
			}
		}
		out = est
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"job_id": jobID,
		"price":  out.Price.String(),
	}).Info("quote approved by customer")
	return out, nil
}

// ForJob returns the job's estimate.
func (e *EstimateEngine) ForJob(ctx context.Context, jobID uuid.UUID) (*models.Estimate, error) {
	return e.store.EstimateForJob(ctx, jobID)
}
