package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"p9e.in/apex/config"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
	"p9e.in/apex/utils"
)

// DeliveryGeofenceRadiusMeters bounds how far from the property delivery
// evidence may be captured before the confirmation is rejected.
const DeliveryGeofenceRadiusMeters = 500

// MaterialEngine tracks a job's material list from AI suggestion through
// field-manager verification to customer delivery confirmation.
type MaterialEngine struct {
	store store.Store
	log   *logrus.Logger
}

// NewMaterialEngine creates a material engine over the given store.
func NewMaterialEngine(s store.Store) *MaterialEngine {
	return &MaterialEngine{store: s, log: config.GetLogger()}
}

// VerifiedLine is one entry of the field manager's verified material list.
type VerifiedLine struct {
	Name       string `json:"name"`
	SKU        string `json:"sku,omitempty"`
	Quantity   int    `json:"quantity"`
	Supplier   string `json:"supplier,omitempty"`
	PriceRange string `json:"price_range,omitempty"`
}

// VerifyMaterials replaces the job's material list wholesale with the field
// manager's verified lines, each stamped FM Verified. Only the FM (or admin)
// may verify. Earlier delivery stamps do not carry over; verification starts
// a fresh delivery cycle.
func (e *MaterialEngine) VerifyMaterials(ctx context.Context, jobID uuid.UUID, actorRole string, lines []VerifiedLine) (*models.Job, error) {
	if actorRole != models.RoleFM && actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	var out *models.Job
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.Job(ctx, jobID); err != nil {
			return err
		}
		replacement := make([]models.MaterialLine, 0, len(lines))
		for _, line := range lines {
			qty := line.Quantity
			if qty < 1 {
				qty = 1
			}
			replacement = append(replacement, models.MaterialLine{
				Name:       line.Name,
				SKU:        line.SKU,
				Quantity:   qty,
				Supplier:   line.Supplier,
				PriceRange: line.PriceRange,
				Status:     models.MaterialFMVerified,
			})
		}
		if err := tx.ReplaceMaterials(ctx, jobID, replacement); err != nil {
			return err
		}
		job, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"job_id": jobID,
		"lines":  len(lines),
	}).Info("materials verified")
	return out, nil
}

// DeliveryConfirmation is the customer's per-line delivery report with its
// photo evidence and capture location.
type DeliveryConfirmation struct {
	LineStatuses map[uuid.UUID]models.DeliveryStatus `json:"line_statuses"`
	Photos       []string                            `json:"photos,omitempty"`
	Latitude     *float64                            `json:"latitude,omitempty"`
	Longitude    *float64                            `json:"longitude,omitempty"`
	Notes        string                              `json:"notes,omitempty"`
}

func (c DeliveryConfirmation) reportsProblem() bool {
	for _, status := range c.LineStatuses {
		if status.Problem() {
			return true
		}
	}
	return false
}

// ConfirmDelivery stamps each reported line's delivery status and records the
// confirmation. Reporting any problem requires at least one evidence photo.
// When the capture location is supplied it must fall inside the property
// geofence. A line already stamped with a problem keeps it; only a fresh
// verification cycle clears reported issues.
func (e *MaterialEngine) ConfirmDelivery(ctx context.Context, jobID uuid.UUID, confirmedBy string, conf DeliveryConfirmation) (*models.Job, error) {
	var missing []string
	for _, status := range conf.LineStatuses {
		if !status.Valid() {
			missing = append(missing, "unknown delivery status "+string(status))
		}
	}
	if conf.reportsProblem() && len(conf.Photos) == 0 {
		missing = append(missing, "evidence photo required when reporting a problem")
	}
	if len(missing) > 0 {
		return nil, &models.RequirementsNotMetError{Missing: missing}
	}
	var out *models.Job
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		job, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		if conf.Latitude != nil && conf.Longitude != nil {
			capture := utils.Coordinate{Lat: *conf.Latitude, Lng: *conf.Longitude}
			if err := capture.Validate(); err != nil {
				return &models.RequirementsNotMetError{Missing: []string{err.Error()}}
			}
			if job.Latitude != 0 || job.Longitude != 0 {
				property := utils.Coordinate{Lat: job.Latitude, Lng: job.Longitude}
				if !utils.WithinRadius(capture, property, DeliveryGeofenceRadiusMeters) {
					return &models.RequirementsNotMetError{
						Missing: []string{"delivery evidence captured outside the property geofence"},
					}
				}
			}
		}
		for i := range job.Materials {
			line := &job.Materials[i]
			status, ok := conf.LineStatuses[line.ID]
			if !ok {
				continue
			}
			if line.DeliveryStatus != nil && line.DeliveryStatus.Problem() && !status.Problem() {
				continue
			}
			s := status
			line.DeliveryStatus = &s
			if err := tx.SaveMaterialLine(ctx, line); err != nil {
				return err
			}
		}
		delivery := &models.MaterialDelivery{
			JobID:       jobID,
			Photos:      conf.Photos,
			Latitude:    conf.Latitude,
			Longitude:   conf.Longitude,
			Notes:       conf.Notes,
			ConfirmedBy: confirmedBy,
			ConfirmedAt: time.Now(),
		}
		if err := tx.SaveDelivery(ctx, delivery); err != nil {
			return err
		}
		refreshed, err := tx.Job(ctx, jobID)
		if err != nil {
			return err
		}
		out = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"job_id":          jobID,
		"material_status": out.MaterialStatus(),
	}).Info("delivery confirmed")
	return out, nil
}
