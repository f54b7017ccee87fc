// Package store is the persistence collaborator for the workflow engines.
// The engines are written against the Store interface so they carry no
// hidden process-wide state; production wires the GORM implementation,
// tests use the in-memory one with fresh fixtures per test.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"p9e.in/apex/models"
)

// ErrNotFound is returned when a record does not exist, regardless of the
// backing implementation.
var ErrNotFound = errors.New("record not found")

// Store exposes load/save accessors keyed by id plus Atomic, which runs fn
// as one serialized unit of work. Every engine operation that checks state
// and then mutates it does so inside Atomic, so actors racing on the same
// job are serialized while different jobs proceed independently.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error

	Job(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Jobs(ctx context.Context, filter JobFilter) ([]models.Job, error)
	SaveJob(ctx context.Context, job *models.Job) error

	ChecklistItem(ctx context.Context, id uuid.UUID) (*models.ChecklistItem, error)
	ChecklistForJob(ctx context.Context, jobID uuid.UUID) ([]models.ChecklistItem, error)
	SaveChecklistItem(ctx context.Context, item *models.ChecklistItem) error

	ReplaceMaterials(ctx context.Context, jobID uuid.UUID, lines []models.MaterialLine) error
	SaveMaterialLine(ctx context.Context, line *models.MaterialLine) error
	SaveDelivery(ctx context.Context, delivery *models.MaterialDelivery) error
	DeliveriesForJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialDelivery, error)

	FlaggedItem(ctx context.Context, id uuid.UUID) (*models.FlaggedItem, error)
	FlaggedForJob(ctx context.Context, jobID uuid.UUID) ([]models.FlaggedItem, error)
	OpenFlaggedCount(ctx context.Context, jobID uuid.UUID) (int64, error)
	SaveFlaggedItem(ctx context.Context, item *models.FlaggedItem) error

	Payout(ctx context.Context, id uuid.UUID) (*models.ContractorPayout, error)
	PayoutsForJob(ctx context.Context, jobID uuid.UUID) ([]models.ContractorPayout, error)
	PayoutsForContractor(ctx context.Context, contractorID uuid.UUID) ([]models.ContractorPayout, error)
	Payouts(ctx context.Context) ([]models.ContractorPayout, error)
	SavePayout(ctx context.Context, payout *models.ContractorPayout) error

	Compliance(ctx context.Context, contractorID uuid.UUID) (*models.ContractorCompliance, error)
	Compliances(ctx context.Context) ([]models.ContractorCompliance, error)
	SaveCompliance(ctx context.Context, c *models.ContractorCompliance) error

	Estimate(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	EstimateForJob(ctx context.Context, jobID uuid.UUID) (*models.Estimate, error)
	SaveEstimate(ctx context.Context, e *models.Estimate) error
}

// JobFilter narrows job listings. Zero values mean "no filter".
type JobFilter struct {
	Status       models.JobStatus
	ContractorID *uuid.UUID
	Trade        string
	Unassigned   bool
}
