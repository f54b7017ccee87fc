package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
)

// testEnv wires every engine over a fresh in-memory store.
type testEnv struct {
	ctx        context.Context
	store      *store.MemStore
	jobs       *JobEngine
	materials  *MaterialEngine
	disputes   *DisputeEngine
	payouts    *PayoutEngine
	compliance *ComplianceEngine
	estimates  *EstimateEngine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := store.NewMemStore()
	return &testEnv{
		ctx:        context.Background(),
		store:      s,
		jobs:       NewJobEngine(s),
		materials:  NewMaterialEngine(s),
		disputes:   NewDisputeEngine(s),
		payouts:    NewPayoutEngine(s),
		compliance: NewComplianceEngine(s),
		estimates:  NewEstimateEngine(s),
	}
}

// seedContractor creates a contractor with a fully active compliance record.
func (e *testEnv) seedContractor(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	expiry := time.Now().AddDate(1, 0, 0)
	c := &models.ContractorCompliance{
		ContractorID:               id,
		W9Uploaded:                 true,
		InsuranceUploaded:          true,
		InsuranceExpiryDate:        &expiry,
		IndependentAgreementSigned: true,
		LiabilityWaiverSigned:      true,
		PaymentTermsSigned:         true,
	}
	c.Recompute(time.Now())
	if err := e.store.SaveCompliance(e.ctx, c); err != nil {
		t.Fatalf("seed compliance: %v", err)
	}
	return id
}

type jobOpts struct {
	mandatoryVisit bool
	visitDone      bool
	contractorID   *uuid.UUID
	checklist      int
	checklistDone  bool
	beforePhotos   int
	afterPhotos    int
	materials      []models.MaterialLine
	status         models.JobStatus
	lat, lng       float64
}

// seedJob creates a job plus its checklist and material lines.
func (e *testEnv) seedJob(t *testing.T, opts jobOpts) *models.Job {
	t.Helper()
	status := opts.status
	if status == "" {
		status = models.JobOpen
	}
	visit := models.VisitPending
	if opts.visitDone {
		visit = models.VisitCompleted
	}
	job := &models.Job{
		PropertyAddress:      "88 Cedar Ct",
		Trade:                "painting",
		JobType:              models.JobTypeStandard,
		Status:               status,
		AssignedContractorID: opts.contractorID,
		MandatorySiteVisit:   opts.mandatoryVisit,
		VisitStatus:          visit,
		ChecklistCompleted:   opts.checklist == 0 || opts.checklistDone,
		BeforePhotoCount:     opts.beforePhotos,
		AfterPhotoCount:      opts.afterPhotos,
		Latitude:             opts.lat,
		Longitude:            opts.lng,
		CreatedAt:            time.Now(),
	}
	if err := e.store.SaveJob(e.ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	for i := 0; i < opts.checklist; i++ {
		item := &models.ChecklistItem{
			JobID:     job.ID,
			Label:     "task",
			Done:      opts.checklistDone,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}
		if err := e.store.SaveChecklistItem(e.ctx, item); err != nil {
			t.Fatalf("seed checklist: %v", err)
		}
	}
	for i := range opts.materials {
		opts.materials[i].JobID = job.ID
		if err := e.store.SaveMaterialLine(e.ctx, &opts.materials[i]); err != nil {
			t.Fatalf("seed material: %v", err)
		}
	}
	got, err := e.store.Job(e.ctx, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	return got
}

func verifiedLines(n int) []models.MaterialLine {
	lines := make([]models.MaterialLine, n)
	for i := range lines {
		lines[i] = models.MaterialLine{Name: "paint", Quantity: 1, Status: models.MaterialFMVerified}
	}
	return lines
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
