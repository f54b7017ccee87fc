package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"p9e.in/apex/middleware"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
	"p9e.in/apex/utils"
)

// ListJobs returns jobs filtered by query parameters. Contractors see the
// board scoped to their own assignments plus the open market.
func ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.JobFilter{
		Status: models.JobStatus(q.Get("status")),
		Trade:  q.Get("trade"),
	}
	if q.Get("unassigned") == "true" {
		filter.Unassigned = true
	}
	if cid := q.Get("contractor_id"); cid != "" {
		id, err := uuid.Parse(cid)
		if err != nil {
			http.Error(w, "invalid contractor_id", http.StatusBadRequest)
			return
		}
		filter.ContractorID = &id
	}
	jobs, err := getStore().Jobs(r.Context(), filter)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GetJob returns one job with its checklist and material lines, plus the
// derived statuses the dashboards render.
func GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	job, err := getStore().Job(r.Context(), jobID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":                 job,
		"material_status":     job.MaterialStatus(),
		"completion_blockers": job.CompletionBlockers(),
	})
}

// CreateJobRequest is the admin's job intake payload.
type CreateJobRequest struct {
	PropertyAddress    string         `json:"property_address" validate:"required"`
	City               string         `json:"city"`
	CustomerName       string         `json:"customer_name"`
	CustomerEmail      string         `json:"customer_email"`
	Trade              string         `json:"trade" validate:"required"`
	JobType            models.JobType `json:"job_type"`
	MandatorySiteVisit bool           `json:"mandatory_site_visit"`
	IsProject          bool           `json:"is_project"`
	GateCode           string         `json:"gate_code"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	Checklist          []string       `json:"checklist"`
	Materials          []VerifiedLine `json:"materials"`
}

// CreateJob opens a new job with its checklist and AI-suggested material
// lines. Admin only (enforced at the route).
func CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Latitude != 0 || req.Longitude != 0 {
		loc := utils.Coordinate{Lat: req.Latitude, Lng: req.Longitude}
		if err := loc.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	jobType := req.JobType
	if jobType != models.JobTypeInvestor {
		jobType = models.JobTypeStandard
	}
	job := &models.Job{
		PropertyAddress:    req.PropertyAddress,
		City:               req.City,
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		Trade:              req.Trade,
		JobType:            jobType,
		Status:             models.JobOpen,
		MandatorySiteVisit: req.MandatorySiteVisit,
		VisitStatus:        models.VisitPending,
		IsProject:          req.IsProject,
		GateCode:           req.GateCode,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
	}
	s := getStore()
	err := s.Atomic(r.Context(), func(tx store.Store) error {
		if err := tx.SaveJob(r.Context(), job); err != nil {
			return err
		}
		for _, label := range req.Checklist {
			item := &models.ChecklistItem{JobID: job.ID, Label: label}
			if err := tx.SaveChecklistItem(r.Context(), item); err != nil {
				return err
			}
		}
		lines := make([]models.MaterialLine, 0, len(req.Materials))
		for _, m := range req.Materials {
			qty := m.Quantity
			if qty < 1 {
				qty = 1
			}
			lines = append(lines, models.MaterialLine{
				Name:       m.Name,
				SKU:        m.SKU,
				Quantity:   qty,
				Supplier:   m.Supplier,
				PriceRange: m.PriceRange,
				Status:     models.MaterialAIGenerated,
			})
		}
		return tx.ReplaceMaterials(r.Context(), job.ID, lines)
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	created, err := s.Job(r.Context(), job.ID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// AcceptJob assigns the job to the authenticated contractor.
func AcceptJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	contractorID, err := uuid.Parse(middleware.GetUserID(r))
	if err != nil {
		http.Error(w, "invalid token subject", http.StatusUnauthorized)
		return
	}
	job, err := NewJobEngine(getStore()).AcceptJob(r.Context(), jobID, contractorID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// RecordSiteVisit stores the field manager's completed visit.
func RecordSiteVisit(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	fmID, err := uuid.Parse(middleware.GetUserID(r))
	if err != nil {
		http.Error(w, "invalid token subject", http.StatusUnauthorized)
		return
	}
	var sub SiteVisitSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	job, err := NewJobEngine(getStore()).RecordSiteVisit(r.Context(), jobID, fmID, sub)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type toggleChecklistRequest struct {
	Done bool `json:"done"`
}

// ToggleChecklistItem flips one checklist item.
func ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	var req toggleChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	job, err := NewJobEngine(getStore()).ToggleChecklistItem(r.Context(), itemID, req.Done)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type photoUploadRequest struct {
	Kind string `json:"kind"`
}

// RecordPhotoUpload bumps the before or after photo counter.
func RecordPhotoUpload(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var req photoUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	job, err := NewJobEngine(getStore()).RecordPhotoUpload(r.Context(), jobID, req.Kind)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type markCompleteRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	MaterialReimbursed decimal.Decimal `json:"material_reimbursed"`
}

// MarkComplete finishes the job and returns the pending payout created with
// it.
func MarkComplete(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var req markCompleteRequest
	if r.Body != nil {
		// An empty body means the amount comes from the signed estimate.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	job, payout, err := NewJobEngine(getStore()).MarkComplete(r.Context(), jobID, req.Amount, req.MaterialReimbursed)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":    job,
		"payout": payout,
	})
}
