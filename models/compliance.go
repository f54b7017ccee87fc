package models

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceStatus gates a contractor's ability to accept jobs.
type ComplianceStatus string

const (
	ComplianceActive  ComplianceStatus = "active"
	ComplianceBlocked ComplianceStatus = "blocked"
)

// ContractorCompliance is the per-contractor onboarding record: two document
// uploads, three signed agreements, and the insurance expiry date.
type ContractorCompliance struct {
	ContractorID uuid.UUID `gorm:"type:uuid;primaryKey" json:"contractor_id"`

	W9Uploaded          bool       `gorm:"default:false" json:"w9_uploaded"`
	InsuranceUploaded   bool       `gorm:"default:false" json:"insurance_uploaded"`
	InsuranceExpiryDate *time.Time `json:"insurance_expiry_date,omitempty"`

	IndependentAgreementSigned bool `gorm:"default:false" json:"independent_agreement_signed"`
	LiabilityWaiverSigned      bool `gorm:"default:false" json:"liability_waiver_signed"`
	PaymentTermsSigned         bool `gorm:"default:false" json:"payment_terms_signed"`

	Status ComplianceStatus `gorm:"size:20;not null;default:'blocked'" json:"compliance_status"`

	// StatusOverridden marks a manual admin override. The override stands
	// until the next underlying field change, which recomputes and clears it.
	StatusOverridden bool `gorm:"default:false" json:"status_overridden"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ContractorCompliance
func (ContractorCompliance) TableName() string {
	return "contractor_compliances"
}

// DeriveComplianceStatus computes the status from the underlying fields:
// active iff all five documents/agreements are in place and the insurance
// expiry date is present and strictly in the future.
func DeriveComplianceStatus(c *ContractorCompliance, now time.Time) ComplianceStatus {
	if c.W9Uploaded &&
		c.InsuranceUploaded &&
		c.IndependentAgreementSigned &&
		c.LiabilityWaiverSigned &&
		c.PaymentTermsSigned &&
		c.InsuranceExpiryDate != nil &&
		c.InsuranceExpiryDate.After(now) {
		return ComplianceActive
	}
	return ComplianceBlocked
}

// Recompute refreshes the derived status and clears any standing admin
// override. Called after every underlying field mutation.
func (c *ContractorCompliance) Recompute(now time.Time) {
	c.Status = DeriveComplianceStatus(c, now)
	c.StatusOverridden = false
}
