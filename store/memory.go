package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"p9e.in/apex/models"
)

// MemStore is the in-memory Store used by tests. A single mutex serializes
// Atomic blocks, which is the same observable guarantee the row-locked
// Postgres implementation gives per job.
type MemStore struct {
	mu   sync.Mutex
	data *memData
}

type memData struct {
	jobs        map[uuid.UUID]*models.Job
	checklist   map[uuid.UUID]*models.ChecklistItem
	materials   map[uuid.UUID]*models.MaterialLine
	deliveries  map[uuid.UUID]*models.MaterialDelivery
	flagged     map[uuid.UUID]*models.FlaggedItem
	payouts     map[uuid.UUID]*models.ContractorPayout
	compliances map[uuid.UUID]*models.ContractorCompliance
	estimates   map[uuid.UUID]*models.Estimate
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: &memData{
		jobs:        make(map[uuid.UUID]*models.Job),
		checklist:   make(map[uuid.UUID]*models.ChecklistItem),
		materials:   make(map[uuid.UUID]*models.MaterialLine),
		deliveries:  make(map[uuid.UUID]*models.MaterialDelivery),
		flagged:     make(map[uuid.UUID]*models.FlaggedItem),
		payouts:     make(map[uuid.UUID]*models.ContractorPayout),
		compliances: make(map[uuid.UUID]*models.ContractorCompliance),
		estimates:   make(map[uuid.UUID]*models.Estimate),
	}}
}

func (s *MemStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{data: s.data})
}

func (s *MemStore) locked() *memTx {
	return &memTx{data: s.data}
}

func (s *MemStore) Job(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Job(ctx, id)
}

func (s *MemStore) Jobs(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Jobs(ctx, filter)
}

func (s *MemStore) SaveJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().SaveJob(ctx, job)
}

func (s *MemStore) ChecklistItem(ctx context.Context, id uuid.UUID) (*models.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().ChecklistItem(ctx, id)
}

func (s *MemStore) ChecklistForJob(ctx context.Context, jobID uuid.UUID) ([]models.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().ChecklistForJob(ctx, jobID)
}

func (s *MemStore) SaveChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().SaveChecklistItem(ctx, item)
}

func (s *MemStore) ReplaceMaterials(ctx context.Context, jobID uuid.UUID, lines []models.MaterialLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().ReplaceMaterials(ctx, jobID, lines)
}

func (s *MemStore) SaveMaterialLine(ctx context.Context, line *models.MaterialLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().SaveMaterialLine(ctx, line)
}

func (s *MemStore) SaveDelivery(ctx context.Context, delivery *models.MaterialDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().SaveDelivery(ctx, delivery)
}

func (s *MemStore) DeliveriesForJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().DeliveriesForJob(ctx, jobID)
}

func (s *MemStore) FlaggedItem(ctx context.Context, id uuid.UUID) (*models.FlaggedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().FlaggedItem(ctx, id)
}

func (s *MemStore) FlaggedForJob(ctx context.Context, jobID uuid.UUID) ([]models.FlaggedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().FlaggedForJob(ctx, jobID)
}

func (s *MemStore) OpenFlaggedCount(ctx context.Context, jobID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().OpenFlaggedCount(ctx, jobID)
}

func (s *MemStore) SaveFlaggedItem(ctx context.Context, item *models.FlaggedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().SaveFlaggedItem(ctx, item)
}

func (s *MemStore) Payout(ctx context.Context, id uuid.UUID) (*models.ContractorPayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Payout(ctx, id)
}

func (s *MemStore) PayoutsForJob(ctx context.Context, jobID uuid.UUID) ([]models.ContractorPayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().PayoutsForJob(ctx, jobID)
}

func (s *MemStore) PayoutsForContractor(ctx context.Context, contractorID uuid.UUID) ([]models.ContractorPayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().PayoutsForContractor(ctx, contractorID)
}

func (s *MemStore) Payouts(ctx context.Context) ([]models.ContractorPayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Payouts(ctx)
}

func (s *MemStore) SavePayout(ctx context.Context, payout *models.ContractorPayout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().SavePayout(ctx, payout)
}

func (s *MemStore) Compliance(ctx context.Context, contractorID uuid.UUID) (*models.ContractorCompliance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Compliance(ctx, contractorID)
}

func (s *MemStore) Compliances(ctx context.Context) ([]models.ContractorCompliance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Compliances(ctx)
}

func (s *MemStore) SaveCompliance(ctx context.Context, c *models.ContractorCompliance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().SaveCompliance(ctx, c)
}

func (s *MemStore) Estimate(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Estimate(ctx, id)
}

func (s *MemStore) EstimateForJob(ctx context.Context, jobID uuid.UUID) (*models.Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().EstimateForJob(ctx, jobID)
}

func (s *MemStore) SaveEstimate(ctx context.Context, e *models.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().SaveEstimate(ctx, e)
}

// memTx operates on the shared data without locking; callers hold the
// MemStore mutex. Returned values are copies so callers can mutate them
// freely and persist via Save.
type memTx struct {
	data *memData
}

func (t *memTx) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func copyJob(j *models.Job, checklist []models.ChecklistItem, materials []models.MaterialLine) *models.Job {
	cp := *j
	cp.ToolsRequired = append([]string(nil), j.ToolsRequired...)
	cp.Checklist = checklist
	cp.Materials = materials
	return &cp
}

func (t *memTx) Job(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, ok := t.data.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	checklist, _ := t.ChecklistForJob(ctx, id)
	materials := t.materialsForJob(id)
	return copyJob(j, checklist, materials), nil
}

func (t *memTx) Jobs(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	var jobs []models.Job
	for id, j := range t.data.jobs {
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if filter.ContractorID != nil &&
			(j.AssignedContractorID == nil || *j.AssignedContractorID != *filter.ContractorID) {
			continue
		}
		if filter.Trade != "" && j.Trade != filter.Trade {
			continue
		}
		if filter.Unassigned && j.AssignedContractorID != nil {
			continue
		}
		checklist, _ := t.ChecklistForJob(ctx, id)
		jobs = append(jobs, *copyJob(j, checklist, t.materialsForJob(id)))
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
	return jobs, nil
}

func (t *memTx) SaveJob(ctx context.Context, job *models.Job) error {
	ensureID(&job.ID)
	cp := *job
	cp.ToolsRequired = append([]string(nil), job.ToolsRequired...)
	cp.Checklist = nil
	cp.Materials = nil
	t.data.jobs[cp.ID] = &cp
	return nil
}

func (t *memTx) ChecklistItem(ctx context.Context, id uuid.UUID) (*models.ChecklistItem, error) {
	item, ok := t.data.checklist[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (t *memTx) ChecklistForJob(ctx context.Context, jobID uuid.UUID) ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	for _, item := range t.data.checklist {
		if item.JobID == jobID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, k int) bool { return items[i].CreatedAt.Before(items[k].CreatedAt) })
	return items, nil
}

func (t *memTx) SaveChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	ensureID(&item.ID)
	cp := *item
	t.data.checklist[cp.ID] = &cp
	return nil
}

func (t *memTx) materialsForJob(jobID uuid.UUID) []models.MaterialLine {
	var lines []models.MaterialLine
	for _, line := range t.data.materials {
		if line.JobID == jobID {
			cp := *line
			if line.DeliveryStatus != nil {
				ds := *line.DeliveryStatus
				cp.DeliveryStatus = &ds
			}
			lines = append(lines, cp)
		}
	}
	sort.Slice(lines, func(i, k int) bool { return lines[i].Name < lines[k].Name })
	return lines
}

func (t *memTx) ReplaceMaterials(ctx context.Context, jobID uuid.UUID, lines []models.MaterialLine) error {
	for id, line := range t.data.materials {
		if line.JobID == jobID {
			delete(t.data.materials, id)
		}
	}
	for i := range lines {
		cp := lines[i]
		cp.ID = uuid.New()
		cp.JobID = jobID
		t.data.materials[cp.ID] = &cp
	}
	return nil
}

func (t *memTx) SaveMaterialLine(ctx context.Context, line *models.MaterialLine) error {
	ensureID(&line.ID)
	cp := *line
	if line.DeliveryStatus != nil {
		ds := *line.DeliveryStatus
		cp.DeliveryStatus = &ds
	}
	t.data.materials[cp.ID] = &cp
	return nil
}

func (t *memTx) SaveDelivery(ctx context.Context, delivery *models.MaterialDelivery) error {
	ensureID(&delivery.ID)
	cp := *delivery
	cp.Photos = append([]string(nil), delivery.Photos...)
	t.data.deliveries[cp.ID] = &cp
	return nil
}

func (t *memTx) DeliveriesForJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialDelivery, error) {
	var deliveries []models.MaterialDelivery
	for _, d := range t.data.deliveries {
		if d.JobID == jobID {
			cp := *d
			cp.Photos = append([]string(nil), d.Photos...)
			deliveries = append(deliveries, cp)
		}
	}
	sort.Slice(deliveries, func(i, k int) bool {
		return deliveries[i].ConfirmedAt.After(deliveries[k].ConfirmedAt)
	})
	return deliveries, nil
}

func (t *memTx) FlaggedItem(ctx context.Context, id uuid.UUID) (*models.FlaggedItem, error) {
	item, ok := t.data.flagged[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (t *memTx) FlaggedForJob(ctx context.Context, jobID uuid.UUID) ([]models.FlaggedItem, error) {
	var items []models.FlaggedItem
	for _, item := range t.data.flagged {
		if item.JobID == jobID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, k int) bool {
		return items[i].CreatedDate.After(items[k].CreatedDate)
	})
	return items, nil
}

func (t *memTx) OpenFlaggedCount(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	for _, item := range t.data.flagged {
		if item.JobID == jobID && item.Status == models.FlaggedOpen {
			count++
		}
	}
	return count, nil
}

func (t *memTx) SaveFlaggedItem(ctx context.Context, item *models.FlaggedItem) error {
	ensureID(&item.ID)
	cp := *item
	t.data.flagged[cp.ID] = &cp
	return nil
}

func (t *memTx) Payout(ctx context.Context, id uuid.UUID) (*models.ContractorPayout, error) {
	p, ok := t.data.payouts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) payoutsWhere(match func(*models.ContractorPayout) bool) []models.ContractorPayout {
	var payouts []models.ContractorPayout
	for _, p := range t.data.payouts {
		if match(p) {
			payouts = append(payouts, *p)
		}
	}
	sort.Slice(payouts, func(i, k int) bool {
		return payouts[i].CreatedAt.After(payouts[k].CreatedAt)
	})
	return payouts
}

func (t *memTx) PayoutsForJob(ctx context.Context, jobID uuid.UUID) ([]models.ContractorPayout, error) {
	return t.payoutsWhere(func(p *models.ContractorPayout) bool { return p.JobID == jobID }), nil
}

func (t *memTx) PayoutsForContractor(ctx context.Context, contractorID uuid.UUID) ([]models.ContractorPayout, error) {
	return t.payoutsWhere(func(p *models.ContractorPayout) bool { return p.ContractorID == contractorID }), nil
}

func (t *memTx) Payouts(ctx context.Context) ([]models.ContractorPayout, error) {
	return t.payoutsWhere(func(*models.ContractorPayout) bool { return true }), nil
}

func (t *memTx) SavePayout(ctx context.Context, payout *models.ContractorPayout) error {
	ensureID(&payout.ID)
	cp := *payout
	t.data.payouts[cp.ID] = &cp
	return nil
}

func (t *memTx) Compliance(ctx context.Context, contractorID uuid.UUID) (*models.ContractorCompliance, error) {
	c, ok := t.data.compliances[contractorID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	if c.InsuranceExpiryDate != nil {
		d := *c.InsuranceExpiryDate
		cp.InsuranceExpiryDate = &d
	}
	return &cp, nil
}

func (t *memTx) Compliances(ctx context.Context) ([]models.ContractorCompliance, error) {
	var cs []models.ContractorCompliance
	for _, c := range t.data.compliances {
		cs = append(cs, *c)
	}
	sort.Slice(cs, func(i, k int) bool {
		return cs[i].ContractorID.String() < cs[k].ContractorID.String()
	})
	return cs, nil
}

func (t *memTx) SaveCompliance(ctx context.Context, c *models.ContractorCompliance) error {
	cp := *c
	if c.InsuranceExpiryDate != nil {
		d := *c.InsuranceExpiryDate
		cp.InsuranceExpiryDate = &d
	}
	t.data.compliances[cp.ContractorID] = &cp
	return nil
}

func (t *memTx) Estimate(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	e, ok := t.data.estimates[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (t *memTx) EstimateForJob(ctx context.Context, jobID uuid.UUID) (*models.Estimate, error) {
	for _, e := range t.data.estimates {
		if e.JobID == jobID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) SaveEstimate(ctx context.Context, e *models.Estimate) error {
	ensureID(&e.ID)
	cp := *e
	t.data.estimates[cp.ID] = &cp
	return nil
}
