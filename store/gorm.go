package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"p9e.in/apex/models"
)

// GormStore backs Store with Postgres through GORM. Inside Atomic the job
// row is fetched with SELECT ... FOR UPDATE, so concurrent approvals or
// completions on the same job serialize at the database.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

// NewGormStore wraps a connected *gorm.DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) Job(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	q := s.db.WithContext(ctx)
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var job models.Job
	if err := q.Preload("Checklist").Preload("Materials").First(&job, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &job, nil
}

func (s *GormStore) Jobs(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	q := s.db.WithContext(ctx).Preload("Checklist").Preload("Materials")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ContractorID != nil {
		q = q.Where("assigned_contractor_id = ?", *filter.ContractorID)
	}
	if filter.Trade != "" {
		q = q.Where("trade = ?", filter.Trade)
	}
	if filter.Unassigned {
		q = q.Where("assigned_contractor_id IS NULL")
	}
	var jobs []models.Job
	if err := q.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *GormStore) SaveJob(ctx context.Context, job *models.Job) error {
	return s.db.WithContext(ctx).Omit("Checklist", "Materials").Save(job).Error
}

func (s *GormStore) ChecklistItem(ctx context.Context, id uuid.UUID) (*models.ChecklistItem, error) {
	var item models.ChecklistItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &item, nil
}

func (s *GormStore) ChecklistForJob(ctx context.Context, jobID uuid.UUID) ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	if err := s.db.WithContext(ctx).Where("job_id = ?", jobID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) SaveChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *GormStore) ReplaceMaterials(ctx context.Context, jobID uuid.UUID, lines []models.MaterialLine) error {
	return s.Atomic(ctx, func(tx Store) error {
		gs := tx.(*GormStore)
		if err := gs.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&models.MaterialLine{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].ID = uuid.Nil
			lines[i].JobID = jobID
			if err := gs.db.WithContext(ctx).Create(&lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) SaveMaterialLine(ctx context.Context, line *models.MaterialLine) error {
	return s.db.WithContext(ctx).Save(line).Error
}

func (s *GormStore) SaveDelivery(ctx context.Context, delivery *models.MaterialDelivery) error {
	return s.db.WithContext(ctx).Save(delivery).Error
}

func (s *GormStore) DeliveriesForJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialDelivery, error) {
	var deliveries []models.MaterialDelivery
	if err := s.db.WithContext(ctx).Where("job_id = ?", jobID).Order("confirmed_at DESC").Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (s *GormStore) FlaggedItem(ctx context.Context, id uuid.UUID) (*models.FlaggedItem, error) {
	var item models.FlaggedItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &item, nil
}

func (s *GormStore) FlaggedForJob(ctx context.Context, jobID uuid.UUID) ([]models.FlaggedItem, error) {
	var items []models.FlaggedItem
	if err := s.db.WithContext(ctx).Where("job_id = ?", jobID).Order("created_date DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) OpenFlaggedCount(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FlaggedItem{}).
		Where("job_id = ? AND status = ?", jobID, models.FlaggedOpen).
		Count(&count).Error
	return count, err
}

func (s *GormStore) SaveFlaggedItem(ctx context.Context, item *models.FlaggedItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *GormStore) Payout(ctx context.Context, id uuid.UUID) (*models.ContractorPayout, error) {
	q := s.db.WithContext(ctx)
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var payout models.ContractorPayout
	if err := q.First(&payout, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &payout, nil
}

func (s *GormStore) PayoutsForJob(ctx context.Context, jobID uuid.UUID) ([]models.ContractorPayout, error) {
	var payouts []models.ContractorPayout
	if err := s.db.WithContext(ctx).Where("job_id = ?", jobID).Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (s *GormStore) PayoutsForContractor(ctx context.Context, contractorID uuid.UUID) ([]models.ContractorPayout, error) {
	var payouts []models.ContractorPayout
	if err := s.db.WithContext(ctx).Where("contractor_id = ?", contractorID).Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (s *GormStore) Payouts(ctx context.Context) ([]models.ContractorPayout, error) {
	var payouts []models.ContractorPayout
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (s *GormStore) SavePayout(ctx context.Context, payout *models.ContractorPayout) error {
	return s.db.WithContext(ctx).Save(payout).Error
}

func (s *GormStore) Compliance(ctx context.Context, contractorID uuid.UUID) (*models.ContractorCompliance, error) {
	var c models.ContractorCompliance
	if err := s.db.WithContext(ctx).First(&c, "contractor_id = ?", contractorID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &c, nil
}

func (s *GormStore) Compliances(ctx context.Context) ([]models.ContractorCompliance, error) {
	var cs []models.ContractorCompliance
	if err := s.db.WithContext(ctx).Order("contractor_id").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (s *GormStore) SaveCompliance(ctx context.Context, c *models.ContractorCompliance) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *GormStore) Estimate(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	var e models.Estimate
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &e, nil
}

func (s *GormStore) EstimateForJob(ctx context.Context, jobID uuid.UUID) (*models.Estimate, error) {
	var e models.Estimate
	if err := s.db.WithContext(ctx).First(&e, "job_id = ?", jobID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &e, nil
}

func (s *GormStore) SaveEstimate(ctx context.Context, e *models.Estimate) error {
	return s.db.WithContext(ctx).Save(e).Error
}
