package handlers

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
)

func fullVisit() SiteVisitSubmission {
	return SiteVisitSubmission{
		BeforePhotoTaken:  true,
		Measurements:      map[string]interface{}{"wall_a": "12ft"},
		ScopeConfirmed:    true,
		MaterialsVerified: true,
		ToolsRequired:     []string{"ladder", "sprayer"},
		LaborRequired:     2,
		EstimatedHours:    16,
		SignatureCaptured: true,
	}
}

func TestAcceptJob(t *testing.T) {
	t.Run("acceptance starts work when no visit is mandated", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		job := env.seedJob(t, jobOpts{})

		got, err := env.jobs.AcceptJob(env.ctx, job.ID, contractor)
		if err != nil {
			t.Fatalf("AcceptJob: %v", err)
		}
		if got.AssignedContractorID == nil || *got.AssignedContractorID != contractor {
			t.Error("job not assigned to the contractor")
		}
		if got.Status != models.JobInProgress {
			t.Errorf("status = %s, want InProgress when nothing gates the work", got.Status)
		}
	})

	t.Run("acceptance leaves the job open while the visit gates it", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		job := env.seedJob(t, jobOpts{mandatoryVisit: true})

		got, err := env.jobs.AcceptJob(env.ctx, job.ID, contractor)
		if err != nil {
			t.Fatalf("AcceptJob: %v", err)
		}
		if got.AssignedContractorID == nil || *got.AssignedContractorID != contractor {
			t.Error("job not assigned to the contractor")
		}
		if got.Status != models.JobOpen {
			t.Errorf("status = %s, the pending visit must keep the job Open", got.Status)
		}
	})

	t.Run("acceptance after a completed visit starts work", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		job := env.seedJob(t, jobOpts{mandatoryVisit: true, visitDone: true})

		got, err := env.jobs.AcceptJob(env.ctx, job.ID, contractor)
		if err != nil {
			t.Fatalf("AcceptJob: %v", err)
		}
		if got.Status != models.JobInProgress {
			t.Errorf("status = %s, want InProgress once the visit is satisfied", got.Status)
		}
	})

	t.Run("second contractor is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		first := env.seedContractor(t)
		second := env.seedContractor(t)
		job := env.seedJob(t, jobOpts{})

		if _, err := env.jobs.AcceptJob(env.ctx, job.ID, first); err != nil {
			t.Fatalf("first accept: %v", err)
		}
		_, err := env.jobs.AcceptJob(env.ctx, job.ID, second)
		if !errors.Is(err, models.ErrAlreadyAssigned) {
			t.Errorf("got %v, want ErrAlreadyAssigned", err)
		}
	})

	t.Run("blocked compliance is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := uuid.New()
		c := &models.ContractorCompliance{ContractorID: contractor, Status: models.ComplianceBlocked}
		if err := env.store.SaveCompliance(env.ctx, c); err != nil {
			t.Fatal(err)
		}
		job := env.seedJob(t, jobOpts{})

		_, err := env.jobs.AcceptJob(env.ctx, job.ID, contractor)
		if !errors.Is(err, models.ErrComplianceBlocked) {
			t.Errorf("got %v, want ErrComplianceBlocked", err)
		}
	})

	t.Run("no compliance record counts as blocked", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.seedJob(t, jobOpts{})
		_, err := env.jobs.AcceptJob(env.ctx, job.ID, uuid.New())
		if !errors.Is(err, models.ErrComplianceBlocked) {
			t.Errorf("got %v, want ErrComplianceBlocked", err)
		}
	})

	t.Run("accepting after visit already started work", func(t *testing.T) {
		// The FM visit may move the job to InProgress before anyone accepts;
		// an unassigned in-progress job is still acceptable.
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		job := env.seedJob(t, jobOpts{status: models.JobInProgress})

		if _, err := env.jobs.AcceptJob(env.ctx, job.ID, contractor); err != nil {
			t.Fatalf("AcceptJob: %v", err)
		}
	})

	t.Run("completed job cannot be accepted", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		job := env.seedJob(t, jobOpts{status: models.JobComplete})

		var transErr *models.InvalidTransitionError
		_, err := env.jobs.AcceptJob(env.ctx, job.ID, contractor)
		if !errors.As(err, &transErr) {
			t.Errorf("got %v, want InvalidTransitionError", err)
		}
	})

	t.Run("unknown job", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		_, err := env.jobs.AcceptJob(env.ctx, uuid.New(), contractor)
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
}

func TestRecordSiteVisit(t *testing.T) {
	t.Run("full submission completes visit and starts work", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.seedJob(t, jobOpts{
			mandatoryVisit: true,
			materials:      []models.MaterialLine{{Name: "paint", Quantity: 2, Status: models.MaterialAIGenerated}},
		})
		fmID := uuid.New()

		got, err := env.jobs.RecordSiteVisit(env.ctx, job.ID, fmID, fullVisit())
		if err != nil {
			t.Fatalf("RecordSiteVisit: %v", err)
		}
		if got.VisitStatus != models.VisitCompleted {
			t.Errorf("visit status = %s", got.VisitStatus)
		}
		if got.Status != models.JobInProgress {
			t.Errorf("job status = %s, want InProgress", got.Status)
		}
		if got.BeforePhotoCount != 1 {
			t.Errorf("before photo count = %d, want 1", got.BeforePhotoCount)
		}
		if got.FMID == nil || *got.FMID != fmID {
			t.Error("visit not attributed to the field manager")
		}
		reloaded, err := env.store.Job(env.ctx, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if reloaded.MaterialStatus() != models.MaterialFMVerified {
			t.Errorf("visit should stamp AI lines verified, got %s", reloaded.MaterialStatus())
		}
	})

	t.Run("partial submission persists nothing", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.seedJob(t, jobOpts{mandatoryVisit: true})

		sub := fullVisit()
		sub.SignatureCaptured = false
		sub.LaborRequired = 0

		var reqErr *models.RequirementsNotMetError
		_, err := env.jobs.RecordSiteVisit(env.ctx, job.ID, uuid.New(), sub)
		if !errors.As(err, &reqErr) {
			t.Fatalf("got %v, want RequirementsNotMetError", err)
		}
		if len(reqErr.Missing) != 2 {
			t.Errorf("missing = %v, want both failing fields listed", reqErr.Missing)
		}

		reloaded, err := env.store.Job(env.ctx, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if reloaded.VisitStatus != models.VisitPending || reloaded.Status != models.JobOpen {
			t.Error("rejected submission must leave the job untouched")
		}
	})

	t.Run("every missing field is named", func(t *testing.T) {
		missing := SiteVisitSubmission{}.MissingFields()
		if len(missing) != 8 {
			t.Errorf("empty submission should miss all 8 fields, got %d: %v", len(missing), missing)
		}
	})
}

func TestToggleChecklistItem(t *testing.T) {
	env := newTestEnv(t)
	job := env.seedJob(t, jobOpts{checklist: 2})
	items, err := env.store.ChecklistForJob(env.ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}

	got, err := env.jobs.ToggleChecklistItem(env.ctx, items[0].ID, true)
	if err != nil {
		t.Fatalf("ToggleChecklistItem: %v", err)
	}
	if got.ChecklistCompleted {
		t.Error("one of two items done must not complete the checklist")
	}

	got, err = env.jobs.ToggleChecklistItem(env.ctx, items[1].ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if !got.ChecklistCompleted {
		t.Error("all items done must complete the checklist")
	}

	got, err = env.jobs.ToggleChecklistItem(env.ctx, items[0].ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.ChecklistCompleted {
		t.Error("untoggling must clear the derived flag")
	}
}

func TestRecordPhotoUpload(t *testing.T) {
	env := newTestEnv(t)
	job := env.seedJob(t, jobOpts{})

	got, err := env.jobs.RecordPhotoUpload(env.ctx, job.ID, "before")
	if err != nil {
		t.Fatal(err)
	}
	if got.BeforePhotoCount != 1 || got.AfterPhotoCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", got.BeforePhotoCount, got.AfterPhotoCount)
	}
	got, err = env.jobs.RecordPhotoUpload(env.ctx, job.ID, "after")
	if err != nil {
		t.Fatal(err)
	}
	if got.AfterPhotoCount != 1 {
		t.Errorf("after count = %d, want 1", got.AfterPhotoCount)
	}

	var reqErr *models.RequirementsNotMetError
	if _, err := env.jobs.RecordPhotoUpload(env.ctx, job.ID, "during"); !errors.As(err, &reqErr) {
		t.Errorf("got %v, want RequirementsNotMetError for unknown kind", err)
	}
}

func TestMarkComplete(t *testing.T) {
	readyOpts := func(contractor uuid.UUID) jobOpts {
		return jobOpts{
			status:        models.JobInProgress,
			contractorID:  &contractor,
			checklist:     3,
			checklistDone: true,
			beforePhotos:  1,
			afterPhotos:   1,
			materials:     verifiedLines(2),
		}
	}

	t.Run("ready job completes and creates payout", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		job := env.seedJob(t, readyOpts(contractor))

		gotJob, payout, err := env.jobs.MarkComplete(env.ctx, job.ID, mustDecimal("850"), mustDecimal("120.50"))
		if err != nil {
			t.Fatalf("MarkComplete: %v", err)
		}
		if gotJob.Status != models.JobComplete {
			t.Errorf("status = %s, want Complete", gotJob.Status)
		}
		if payout.Status != models.PayoutProcessing {
			t.Errorf("payout status = %s, want Processing", payout.Status)
		}
		if !payout.Amount.Equal(mustDecimal("850")) {
			t.Errorf("payout amount = %s", payout.Amount)
		}
		if !payout.MaterialReimbursed.Equal(mustDecimal("120.50")) {
			t.Errorf("reimbursed = %s", payout.MaterialReimbursed)
		}
		if payout.ContractorID != contractor {
			t.Error("payout not addressed to the assigned contractor")
		}
	})

	t.Run("zero amount falls back to estimate price", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		job := env.seedJob(t, readyOpts(contractor))
		est := &models.Estimate{JobID: job.ID, Price: mustDecimal("1200"), Status: models.EstimateCustomerSigned}
		if err := env.store.SaveEstimate(env.ctx, est); err != nil {
			t.Fatal(err)
		}

		_, payout, err := env.jobs.MarkComplete(env.ctx, job.ID, decimal.Zero, decimal.Zero)
		if err != nil {
			t.Fatal(err)
		}
		if !payout.Amount.Equal(mustDecimal("1200")) {
			t.Errorf("payout amount = %s, want estimate price", payout.Amount)
		}
	})

	t.Run("unready job reports every blocker and stays put", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		bad := models.DeliveryMissingItems
		job := env.seedJob(t, jobOpts{
			status:       models.JobInProgress,
			contractorID: &contractor,
			checklist:    2,
			beforePhotos: 0,
			afterPhotos:  0,
			materials:    []models.MaterialLine{{Name: "paint", Status: models.MaterialFMVerified, DeliveryStatus: &bad}},
		})

		var reqErr *models.RequirementsNotMetError
		_, _, err := env.jobs.MarkComplete(env.ctx, job.ID, decimal.Zero, decimal.Zero)
		if !errors.As(err, &reqErr) {
			t.Fatalf("got %v, want RequirementsNotMetError", err)
		}
		if len(reqErr.Missing) != 4 {
			t.Errorf("missing = %v, want all four blockers", reqErr.Missing)
		}

		reloaded, _ := env.store.Job(env.ctx, job.ID)
		if reloaded.Status != models.JobInProgress {
			t.Error("failed completion must not change status")
		}
		payouts, _ := env.store.PayoutsForJob(env.ctx, job.ID)
		if len(payouts) != 0 {
			t.Error("failed completion must not create a payout")
		}
	})

	t.Run("open job cannot skip to complete", func(t *testing.T) {
		env := newTestEnv(t)
		contractor := env.seedContractor(t)
		opts := readyOpts(contractor)
		opts.status = models.JobOpen
		job := env.seedJob(t, opts)

		var transErr *models.InvalidTransitionError
		_, _, err := env.jobs.MarkComplete(env.ctx, job.ID, decimal.Zero, decimal.Zero)
		if !errors.As(err, &transErr) {
			t.Errorf("got %v, want InvalidTransitionError", err)
		}
	})
}
