package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus is the lifecycle state of a job. Jobs only move forward:
// Open -> InProgress -> Complete -> Paid. A declined payout leaves the job
// at Complete (payable-pending); nothing ever reverses Complete.
type JobStatus string

const (
	JobOpen       JobStatus = "Open"
	JobInProgress JobStatus = "InProgress"
	JobComplete   JobStatus = "Complete"
	JobPaid       JobStatus = "Paid"
)

var jobStatusRank = map[JobStatus]int{
	JobOpen:       0,
	JobInProgress: 1,
	JobComplete:   2,
	JobPaid:       3,
}

// CanAdvanceTo reports whether next is a single forward step from s.
func (s JobStatus) CanAdvanceTo(next JobStatus) bool {
	from, ok := jobStatusRank[s]
	if !ok {
		return false
	}
	to, ok := jobStatusRank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// VisitStatus tracks the mandatory pre-work site visit by the field manager.
type VisitStatus string

const (
	VisitPending    VisitStatus = "Pending"
	VisitInProgress VisitStatus = "InProgress"
	VisitCompleted  VisitStatus = "Completed"
)

// JobType distinguishes investor-funded work from standard customer jobs.
type JobType string

const (
	JobTypeStandard JobType = "standard"
	JobTypeInvestor JobType = "investor"
)

// Job represents a single contracted unit of renovation work at a property.
type Job struct {
	ID                   uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PropertyAddress      string      `gorm:"size:255;not null" json:"property_address"`
	City                 string      `gorm:"size:100;index" json:"city,omitempty"`
	CustomerName         string      `gorm:"size:255" json:"customer_name,omitempty"`
	CustomerEmail        string      `gorm:"size:255" json:"customer_email,omitempty"`
	Trade                string      `gorm:"size:100;index" json:"trade"`
	JobType              JobType     `gorm:"size:20;not null;default:'standard'" json:"job_type"`
	Status               JobStatus   `gorm:"size:20;not null;default:'Open';index" json:"status"`
	AssignedContractorID *uuid.UUID  `gorm:"type:uuid;index" json:"assigned_contractor_id,omitempty"`
	FMID                 *uuid.UUID  `gorm:"type:uuid" json:"fm_id,omitempty"`
	MandatorySiteVisit   bool        `gorm:"default:false" json:"mandatory_site_visit"`
	VisitStatus          VisitStatus `gorm:"size:20;not null;default:'Pending'" json:"visit_status"`
	ChecklistCompleted   bool        `gorm:"default:false" json:"checklist_completed"`
	BeforePhotoCount     int         `gorm:"default:0" json:"before_photo_count"`
	AfterPhotoCount      int         `gorm:"default:0" json:"after_photo_count"`
	IsProject            bool        `gorm:"default:false" json:"is_project"`
	GateCode             string      `gorm:"size:20" json:"gate_code,omitempty"`

	// Property location, used to geofence delivery evidence
	Latitude  float64 `gorm:"type:decimal(10,8);default:0" json:"latitude,omitempty"`
	Longitude float64 `gorm:"type:decimal(11,8);default:0" json:"longitude,omitempty"`

	// Site-visit record captured by the field manager
	Measurements      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"measurements,omitempty"`
	ScopeConfirmed    bool           `gorm:"default:false" json:"scope_confirmed"`
	ToolsRequired     pq.StringArray `gorm:"type:text[]" json:"tools_required,omitempty"`
	LaborRequired     int            `gorm:"default:0" json:"labor_required"`
	EstimatedHours    float64        `gorm:"type:decimal(6,2);default:0" json:"estimated_hours"`
	SafetyConcerns    string         `gorm:"type:text" json:"safety_concerns,omitempty"`
	SignatureCaptured bool           `gorm:"default:false" json:"signature_captured"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Checklist []ChecklistItem `gorm:"foreignKey:JobID" json:"checklist,omitempty"`
	Materials []MaterialLine  `gorm:"foreignKey:JobID" json:"materials,omitempty"`
}

// TableName specifies the table name for Job
func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}

// MaterialStatus derives the job-level material status from its lines.
func (j *Job) MaterialStatus() MaterialStatus {
	return DeriveMaterialStatus(j.Materials)
}

// VisitSatisfied reports whether the site-visit gate is clear: either no
// visit is mandated, or the field manager has completed it.
func (j *Job) VisitSatisfied() bool {
	return !j.MandatorySiteVisit || j.VisitStatus == VisitCompleted
}

// Completion blocker reasons, surfaced verbatim to the caller.
const (
	BlockerChecklistIncomplete = "checklist not complete"
	BlockerNoBeforePhotos      = "no before photos uploaded"
	BlockerNoAfterPhotos       = "no after photos uploaded"
	BlockerMaterialIssues      = "material issues reported"
	BlockerNoContractor        = "no contractor assigned"
)

// CompletionBlockers returns every condition still preventing the job from
// being marked complete. The full list is always returned, never just the
// first failure.
func (j *Job) CompletionBlockers() []string {
	var blockers []string
	if j.AssignedContractorID == nil {
		blockers = append(blockers, BlockerNoContractor)
	}
	if !j.ChecklistCompleted {
		blockers = append(blockers, BlockerChecklistIncomplete)
	}
	if j.BeforePhotoCount <= 0 {
		blockers = append(blockers, BlockerNoBeforePhotos)
	}
	if j.AfterPhotoCount <= 0 {
		blockers = append(blockers, BlockerNoAfterPhotos)
	}
	if j.MaterialStatus() == MaterialIssuesFound {
		blockers = append(blockers, BlockerMaterialIssues)
	}
	return blockers
}

// ChecklistItem is one required task bound to a job.
type ChecklistItem struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	Label string    `gorm:"size:255;not null" json:"label"`
	Done  bool      `gorm:"default:false" json:"done"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ChecklistItem
func (ChecklistItem) TableName() string {
	return "checklist_items"
}

func (c *ChecklistItem) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// ChecklistComplete reports whether every item is done. An empty checklist
// counts as complete.
func ChecklistComplete(items []ChecklistItem) bool {
	for _, item := range items {
		if !item.Done {
			return false
		}
	}
	return true
}
