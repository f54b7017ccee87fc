package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MaterialStatus is the job-level material state derived from the lines.
type MaterialStatus string

const (
	MaterialAIGenerated MaterialStatus = "AI Generated"
	MaterialFMVerified  MaterialStatus = "FM Verified"
	MaterialIssuesFound MaterialStatus = "Issues Found"
)

// DeliveryStatus is set per line once the customer confirms a delivery.
type DeliveryStatus string

const (
	DeliveryCorrect      DeliveryStatus = "Correct"
	DeliveryMissingItems DeliveryStatus = "Missing Items"
	DeliveryDamaged      DeliveryStatus = "Damaged"
	DeliveryWrongItems   DeliveryStatus = "Wrong Items"
)

// Problem reports whether this delivery status is a reported defect.
func (d DeliveryStatus) Problem() bool {
	return d == DeliveryMissingItems || d == DeliveryDamaged || d == DeliveryWrongItems
}

// Valid reports whether d is one of the recognized delivery statuses.
func (d DeliveryStatus) Valid() bool {
	switch d {
	case DeliveryCorrect, DeliveryMissingItems, DeliveryDamaged, DeliveryWrongItems:
		return true
	}
	return false
}

// MaterialLine is one entry on a job's material list, tracked from AI
// suggestion through FM verification to customer delivery confirmation.
type MaterialLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_id"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	SKU        string          `gorm:"size:100" json:"sku,omitempty"`
	Quantity   int             `gorm:"default:1" json:"quantity"`
	Supplier   string          `gorm:"size:255" json:"supplier,omitempty"`
	PriceRange string          `gorm:"size:50" json:"price_range,omitempty"`
	Status     MaterialStatus  `gorm:"size:20;not null;default:'AI Generated'" json:"status"`
	DeliveryStatus *DeliveryStatus `gorm:"size:20" json:"delivery_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for MaterialLine
func (MaterialLine) TableName() string {
	return "material_lines"
}

func (m *MaterialLine) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// DeriveMaterialStatus computes the job-level material status.
//
// Issues Found dominates everything: one reported defect flips the whole
// job regardless of how many lines verified cleanly. Otherwise the list is
// AI Generated while any line still awaits FM verification, and FM Verified
// once every line carries the FM stamp. An empty list verifies vacuously.
func DeriveMaterialStatus(lines []MaterialLine) MaterialStatus {
	anyAI := false
	for _, line := range lines {
		if line.DeliveryStatus != nil && line.DeliveryStatus.Problem() {
			return MaterialIssuesFound
		}
		if line.Status == MaterialAIGenerated {
			anyAI = true
		}
	}
	if anyAI {
		return MaterialAIGenerated
	}
	return MaterialFMVerified
}

// MaterialDelivery records one customer delivery confirmation, with photo
// evidence references and the capture location.
type MaterialDelivery struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	Photos    pq.StringArray `gorm:"type:text[]" json:"photos,omitempty"`
	Latitude  *float64       `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude *float64       `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`
	Notes     string         `gorm:"type:text" json:"notes,omitempty"`

	ConfirmedBy string    `gorm:"size:255" json:"confirmed_by,omitempty"`
	ConfirmedAt time.Time `gorm:"not null" json:"confirmed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for MaterialDelivery
func (MaterialDelivery) TableName() string {
	return "material_deliveries"
}

func (d *MaterialDelivery) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
