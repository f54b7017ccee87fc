package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"p9e.in/apex/config"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
)

// JobEngine drives the job lifecycle: acceptance, the mandatory site visit,
// checklist and photo evidence, and completion. Every mutating operation runs
// inside store.Atomic so two actors racing on the same job serialize.
type JobEngine struct {
	store store.Store
	log   *logrus.Logger
}

// NewJobEngine creates a job engine over the given store.
func NewJobEngine(s store.Store) *JobEngine {
	return &JobEngine{store: s, log: config.GetLogger()}
}

// AcceptJob assigns the job to the contractor and, when no mandatory site
// visit still gates the work, advances an open job to InProgress. It fails if
// the job already has a contractor, if the contractor's compliance record is
// not active, or if the job has moved past the workable states.
func (e *JobEngine) AcceptJob(ctx context.Context, jobID, contractorID uuid.UUID) (*models.Job, error) {
	var out *models.Job
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		job, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		if job.AssignedContractorID != nil {
			return models.ErrAlreadyAssigned
		}
		if job.Status != models.JobOpen && job.Status != models.JobInProgress {
			return &models.InvalidTransitionError{
				Entity: "job", From: string(job.Status), To: string(models.JobInProgress),
			}
		}
		compliance, err := tx.Compliance(ctx, contractorID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.ErrComplianceBlocked
			}
			return err
		}
		if compliance.Status != models.ComplianceActive {
			return models.ErrComplianceBlocked
		}
		id := contractorID
		job.AssignedContractorID = &id
		if job.Status == models.JobOpen && job.VisitSatisfied() {
			job.Status = models.JobInProgress
		}
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"job_id":        jobID,
		"contractor_id": contractorID,
	}).Info("job accepted")
	return out, nil
}

// SiteVisitSubmission carries the field manager's visit record. All eight
// mandatory fields must be present; a partial submission persists nothing.
type SiteVisitSubmission struct {
	BeforePhotoTaken  bool                   `json:"before_photo_taken"`
	Measurements      map[string]interface{} `json:"measurements"`
	ScopeConfirmed    bool                   `json:"scope_confirmed"`
	MaterialsVerified bool                   `json:"materials_verified"`
	ToolsRequired     []string               `json:"tools_required"`
	LaborRequired     int                    `json:"labor_required"`
	EstimatedHours    float64                `json:"estimated_hours"`
	SignatureCaptured bool                   `json:"signature_captured"`
	SafetyConcerns    string                 `json:"safety_concerns,omitempty"`
}

// MissingFields lists every mandatory visit field not supplied.
func (s SiteVisitSubmission) MissingFields() []string {
	var missing []string
	if !s.BeforePhotoTaken {
		missing = append(missing, "before photo")
	}
	if len(s.Measurements) == 0 {
		missing = append(missing, "verified measurements")
	}
	if !s.ScopeConfirmed {
		missing = append(missing, "confirmed scope")
	}
	if !s.MaterialsVerified {
		missing = append(missing, "verified materials")
	}
	if len(s.ToolsRequired) == 0 {
		missing = append(missing, "tools list")
	}
	if s.LaborRequired < 1 {
		missing = append(missing, "labor headcount")
	}
	if s.EstimatedHours <= 0 {
		missing = append(missing, "estimated hours")
	}
	if !s.SignatureCaptured {
		missing = append(missing, "signature")
	}
	return missing
}

// RecordSiteVisit stores the completed visit, marks the visit Completed, and
// moves the job to InProgress regardless of assignment order. The eight-field
// check is all-or-nothing; on rejection nothing is persisted.
func (e *JobEngine) RecordSiteVisit(ctx context.Context, jobID, fmID uuid.UUID, sub SiteVisitSubmission) (*models.Job, error) {
	if missing := sub.MissingFields(); len(missing) > 0 {
		return nil, &models.RequirementsNotMetError{Missing: missing}
	}
	var out *models.Job
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		job, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		measurements, err := json.Marshal(sub.Measurements)
		if err != nil {
			return err
		}
		job.Measurements = measurements
		job.ScopeConfirmed = true
		job.ToolsRequired = sub.ToolsRequired
		job.LaborRequired = sub.LaborRequired
		job.EstimatedHours = sub.EstimatedHours
		job.SafetyConcerns = sub.SafetyConcerns
		job.SignatureCaptured = true
		job.VisitStatus = models.VisitCompleted
		if job.BeforePhotoCount == 0 {
			job.BeforePhotoCount = 1
		}
		if job.Status == models.JobOpen {
			job.Status = models.JobInProgress
		}
		fm := fmID
		job.FMID = &fm
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		// The visit verifies the material list; stamp the lines that were
		// still AI suggestions.
		for _, line := range job.Materials {
			if line.Status == models.MaterialAIGenerated {
				line.Status = models.MaterialFMVerified
				if err := tx.SaveMaterialLine(ctx, &line); err != nil {
					return err
				}
			}
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"job_id": jobID,
		"fm_id":  fmID,
	}).Info("site visit recorded")
	return out, nil
}

// ToggleChecklistItem flips one item and recomputes the job's checklist flag
// from the full list in the same unit of work.
func (e *JobEngine) ToggleChecklistItem(ctx context.Context, itemID uuid.UUID, done bool) (*models.Job, error) {
	var out *models.Job
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		item, err := tx.ChecklistItem(ctx, itemID)
		if err != nil {
			return err
		}
		item.Done = done
		if err := tx.SaveChecklistItem(ctx, item); err != nil {
			return err
		}
		job, err := tx.Job(ctx, item.JobID)
		if err != nil {
			return err
		}
		items, err := tx.ChecklistForJob(ctx, item.JobID)
		if err != nil {
			return err
		}
		job.ChecklistCompleted = models.ChecklistComplete(items)
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		out = job
		return nil
	})
	return out, err
}

// RecordPhotoUpload increments the before or after photo counter.
func (e *JobEngine) RecordPhotoUpload(ctx context.Context, jobID uuid.UUID, kind string) (*models.Job, error) {
	if kind != "before" && kind != "after" {
		return nil, &models.RequirementsNotMetError{Missing: []string{"photo kind must be before or after"}}
	}
	var out *models.Job
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		job, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		if kind == "before" {
			job.BeforePhotoCount++
		} else {
			job.AfterPhotoCount++
		}
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		out = job
		return nil
	})
	return out, err
}

// MarkComplete moves an in-progress job to Complete and creates the pending
// payout in the same unit of work. The payout amount is injected by the
// caller; when zero it falls back to the signed estimate's price. On any
// unmet readiness condition the full blocker list is returned and nothing
// changes.
func (e *JobEngine) MarkComplete(ctx context.Context, jobID uuid.UUID, amount, materialReimbursed decimal.Decimal) (*models.Job, *models.ContractorPayout, error) {
	var (
		outJob    *models.Job
		outPayout *models.ContractorPayout
	)
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		job, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		if !job.Status.CanAdvanceTo(models.JobComplete) {
			return &models.InvalidTransitionError{
				Entity: "job", From: string(job.Status), To: string(models.JobComplete),
			}
		}
		// Recompute the derived flag before judging readiness so a stale
		// summary can never block or pass completion on its own.
		items, err := tx.ChecklistForJob(ctx, jobID)
		if err != nil {
			return err
		}
		job.ChecklistCompleted = models.ChecklistComplete(items)
		if blockers := job.CompletionBlockers(); len(blockers) > 0 {
			return &models.RequirementsNotMetError{Missing: blockers}
		}
		if amount.IsZero() {
			est, err := tx.EstimateForJob(ctx, jobID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err == nil && est.Status == models.EstimateCustomerSigned {
				amount = est.Price
			}
		}
		job.Status = models.JobComplete
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		payout := &models.ContractorPayout{
			JobID:              job.ID,
			ContractorID:       *job.AssignedContractorID,
			JobType:            job.JobType,
			Amount:             amount,
			MaterialReimbursed: materialReimbursed,
			Status:             models.PayoutProcessing,
			CreatedAt:          time.Now(),
		}
		if err := tx.SavePayout(ctx, payout); err != nil {
			return err
		}
		outJob = job
		outPayout = payout
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	e.log.WithFields(logrus.Fields{
		"job_id":    jobID,
		"payout_id": outPayout.ID,
		"amount":    outPayout.Amount.String(),
	}).Info("job marked complete, payout pending")
	return outJob, outPayout, nil
}
