package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FlaggedKind tags the two variants sharing the open/resolved lifecycle:
// customer/contractor disputes and field-manager change-order requests.
type FlaggedKind string

const (
	FlaggedDispute     FlaggedKind = "dispute"
	FlaggedChangeOrder FlaggedKind = "change_order"
)

// FlaggedStatus is the lifecycle state of a flagged item. A resolved item
// never reopens; a new one is raised instead.
type FlaggedStatus string

const (
	FlaggedOpen     FlaggedStatus = "Open"
	FlaggedResolved FlaggedStatus = "Resolved"
)

// FlaggedItem is any flagged problem tied to a job. Every open item,
// dispute or change order, blocks payout for that job until resolved.
type FlaggedItem struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"job_id"`
	Kind        FlaggedKind   `gorm:"size:20;not null;default:'dispute';index" json:"kind"`
	Status      FlaggedStatus `gorm:"size:20;not null;default:'Open';index" json:"status"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	Severity    string        `gorm:"size:20;default:'medium'" json:"severity,omitempty"`

	// Change-order variant only
	AdditionalCost decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"additional_cost"`

	CreatedByRole string    `gorm:"size:20;not null" json:"created_by_role"`
	CreatedBy     string    `gorm:"size:255" json:"created_by,omitempty"`
	CreatedDate   time.Time `gorm:"not null" json:"created_date"`

	Resolution string     `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedBy string     `gorm:"size:255" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for FlaggedItem
func (FlaggedItem) TableName() string {
	return "flagged_items"
}

func (f *FlaggedItem) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}
