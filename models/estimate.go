package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EstimateStatus tracks the quote from FM draft to customer signature.
type EstimateStatus string

const (
	EstimateDraft          EstimateStatus = "Draft"
	EstimateCustomerSigned EstimateStatus = "CustomerSigned"
)

// Estimate is the quote produced after the site visit: labor from the FM's
// hours and rate, materials from the verified list. Signing it is a one-time
// action that unlocks the work.
type Estimate struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"job_id"`
	Trade string    `gorm:"size:100" json:"trade,omitempty"`

	Hours            decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"hours"`
	LaborRate        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"labor_rate"`
	MaterialEstimate decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"material_estimate"`
	Price            decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price"`

	ScopeOfWork string         `gorm:"type:text" json:"scope_of_work,omitempty"`
	Status      EstimateStatus `gorm:"size:20;not null;default:'Draft'" json:"status"`
	SignedAt    *time.Time     `json:"signed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Estimate
func (Estimate) TableName() string {
	return "estimates"
}

func (e *Estimate) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

// QuoteTotal computes the quote price: labor rate times hours, plus the
// material estimate.
func QuoteTotal(hours, laborRate, materialEstimate decimal.Decimal) decimal.Decimal {
	return laborRate.Mul(hours).Add(materialEstimate)
}
