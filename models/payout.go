package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutStatus is the lifecycle state of a contractor payout. Processing is
// the only non-terminal state; Paid and Declined are final.
type PayoutStatus string

const (
	PayoutProcessing PayoutStatus = "Processing"
	PayoutPaid       PayoutStatus = "Paid"
	PayoutDeclined   PayoutStatus = "Declined"
)

// ContractorPayout is a pending or settled payment for labor (plus any
// reimbursed materials) on a completed job.
type ContractorPayout struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID        uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	ContractorID uuid.UUID `gorm:"type:uuid;not null;index" json:"contractor_id"`
	JobType      JobType   `gorm:"size:20;not null;default:'standard'" json:"job_type"`

	Amount             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	MaterialReimbursed decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"material_reimbursed"`

	Status        PayoutStatus `gorm:"size:20;not null;default:'Processing';index" json:"status"`
	DeclineReason string       `gorm:"type:text" json:"decline_reason,omitempty"`
	PaymentDate   *time.Time   `json:"payment_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ContractorPayout
func (ContractorPayout) TableName() string {
	return "contractor_payouts"
}

func (p *ContractorPayout) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// Payout gate reasons, each surfaced independently to the approver.
const (
	PayoutReasonVisitIncomplete = "mandatory site visit not completed"
	PayoutReasonMaterialIssues  = "material issues found"
	PayoutReasonOpenDispute     = "open dispute on job"
)

// PayoutBlockReasons evaluates the payout gate for a job. It is pure: no
// side effects, safe to call for display before the admin acts. Every
// failing clause is returned, never just the first, so the approver sees
// the complete picture.
func PayoutBlockReasons(job *Job, openDisputes int64) []string {
	var reasons []string
	if job.MandatorySiteVisit && job.VisitStatus != VisitCompleted {
		reasons = append(reasons, PayoutReasonVisitIncomplete)
	}
	if job.MaterialStatus() == MaterialIssuesFound {
		reasons = append(reasons, PayoutReasonMaterialIssues)
	}
	if openDisputes > 0 {
		reasons = append(reasons, PayoutReasonOpenDispute)
	}
	return reasons
}

// CanApprovePayout reports whether every gate clause passes.
func CanApprovePayout(job *Job, openDisputes int64) bool {
	return len(PayoutBlockReasons(job, openDisputes)) == 0
}
