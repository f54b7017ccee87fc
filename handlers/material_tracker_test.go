package handlers

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"p9e.in/apex/models"
)

func TestVerifyMaterials(t *testing.T) {
	t.Run("fm replaces the list wholesale", func(t *testing.T) {
		env := newTestEnv(t)
		bad := models.DeliveryDamaged
		job := env.seedJob(t, jobOpts{materials: []models.MaterialLine{
			{Name: "old primer", Status: models.MaterialAIGenerated},
			{Name: "old tape", Status: models.MaterialFMVerified, DeliveryStatus: &bad},
		}})

		got, err := env.materials.VerifyMaterials(env.ctx, job.ID, models.RoleFM, []VerifiedLine{
			{Name: "interior latex", Quantity: 4, Supplier: "BuildMart"},
			{Name: "painter's tape"},
		})
		if err != nil {
			t.Fatalf("VerifyMaterials: %v", err)
		}
		if len(got.Materials) != 2 {
			t.Fatalf("got %d lines, want 2", len(got.Materials))
		}
		for _, line := range got.Materials {
			if line.Status != models.MaterialFMVerified {
				t.Errorf("line %q status = %s, want FM Verified", line.Name, line.Status)
			}
			if line.DeliveryStatus != nil {
				t.Errorf("line %q should start a fresh delivery cycle", line.Name)
			}
			if line.Quantity < 1 {
				t.Errorf("line %q quantity = %d", line.Name, line.Quantity)
			}
		}
		if got.MaterialStatus() != models.MaterialFMVerified {
			t.Errorf("derived status = %s, verification clears earlier issues", got.MaterialStatus())
		}
	})

	t.Run("contractor cannot verify", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.seedJob(t, jobOpts{})
		_, err := env.materials.VerifyMaterials(env.ctx, job.ID, models.RoleContractor, nil)
		if !errors.Is(err, models.ErrForbidden) {
			t.Errorf("got %v, want ErrForbidden", err)
		}
	})
}

func TestConfirmDelivery(t *testing.T) {
	setup := func(t *testing.T) (*testEnv, *models.Job) {
		env := newTestEnv(t)
		job := env.seedJob(t, jobOpts{
			materials: verifiedLines(2),
			lat:       30.2672,
			lng:       -97.7431,
		})
		return env, job
	}

	t.Run("problem without evidence photo is rejected", func(t *testing.T) {
		env, job := setup(t)
		conf := DeliveryConfirmation{
			LineStatuses: map[uuid.UUID]models.DeliveryStatus{
				job.Materials[0].ID: models.DeliveryDamaged,
			},
		}
		var reqErr *models.RequirementsNotMetError
		_, err := env.materials.ConfirmDelivery(env.ctx, job.ID, "customer", conf)
		if !errors.As(err, &reqErr) {
			t.Fatalf("got %v, want RequirementsNotMetError", err)
		}
	})

	t.Run("problem with evidence flags the job", func(t *testing.T) {
		env, job := setup(t)
		conf := DeliveryConfirmation{
			LineStatuses: map[uuid.UUID]models.DeliveryStatus{
				job.Materials[0].ID: models.DeliveryMissingItems,
				job.Materials[1].ID: models.DeliveryCorrect,
			},
			Photos: []string{"uploads/delivery-1.jpg"},
		}
		got, err := env.materials.ConfirmDelivery(env.ctx, job.ID, "customer", conf)
		if err != nil {
			t.Fatalf("ConfirmDelivery: %v", err)
		}
		if got.MaterialStatus() != models.MaterialIssuesFound {
			t.Errorf("derived status = %s, want Issues Found", got.MaterialStatus())
		}
		deliveries, err := env.store.DeliveriesForJob(env.ctx, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(deliveries) != 1 || deliveries[0].ConfirmedBy != "customer" {
			t.Errorf("delivery record not stored: %+v", deliveries)
		}
	})

	t.Run("later correct stamp does not clear a reported issue", func(t *testing.T) {
		env, job := setup(t)
		lineID := job.Materials[0].ID
		first := DeliveryConfirmation{
			LineStatuses: map[uuid.UUID]models.DeliveryStatus{lineID: models.DeliveryDamaged},
			Photos:       []string{"uploads/broken.jpg"},
		}
		if _, err := env.materials.ConfirmDelivery(env.ctx, job.ID, "customer", first); err != nil {
			t.Fatal(err)
		}
		second := DeliveryConfirmation{
			LineStatuses: map[uuid.UUID]models.DeliveryStatus{lineID: models.DeliveryCorrect},
		}
		got, err := env.materials.ConfirmDelivery(env.ctx, job.ID, "customer", second)
		if err != nil {
			t.Fatal(err)
		}
		if got.MaterialStatus() != models.MaterialIssuesFound {
			t.Errorf("issue must stick until re-verification, got %s", got.MaterialStatus())
		}
	})

	t.Run("capture outside the geofence is rejected", func(t *testing.T) {
		env, job := setup(t)
		farLat, farLng := 30.3322, -97.7431 // ~7 km north
		conf := DeliveryConfirmation{
			LineStatuses: map[uuid.UUID]models.DeliveryStatus{
				job.Materials[0].ID: models.DeliveryCorrect,
			},
			Latitude:  &farLat,
			Longitude: &farLng,
		}
		var reqErr *models.RequirementsNotMetError
		_, err := env.materials.ConfirmDelivery(env.ctx, job.ID, "customer", conf)
		if !errors.As(err, &reqErr) {
			t.Fatalf("got %v, want geofence rejection", err)
		}
	})

	t.Run("capture near the property is accepted", func(t *testing.T) {
		env, job := setup(t)
		lat, lng := 30.2675, -97.7434
		conf := DeliveryConfirmation{
			LineStatuses: map[uuid.UUID]models.DeliveryStatus{
				job.Materials[0].ID: models.DeliveryCorrect,
			},
			Latitude:  &lat,
			Longitude: &lng,
		}
		if _, err := env.materials.ConfirmDelivery(env.ctx, job.ID, "customer", conf); err != nil {
			t.Fatalf("ConfirmDelivery: %v", err)
		}
	})

	t.Run("out-of-range coordinates are rejected", func(t *testing.T) {
		env, job := setup(t)
		badLat, lng := 91.5, -97.7431
		conf := DeliveryConfirmation{
			LineStatuses: map[uuid.UUID]models.DeliveryStatus{
				job.Materials[0].ID: models.DeliveryCorrect,
			},
			Latitude:  &badLat,
			Longitude: &lng,
		}
		var reqErr *models.RequirementsNotMetError
		_, err := env.materials.ConfirmDelivery(env.ctx, job.ID, "customer", conf)
		if !errors.As(err, &reqErr) {
			t.Fatalf("got %v, want RequirementsNotMetError for an impossible latitude", err)
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		env, job := setup(t)
		conf := DeliveryConfirmation{
			LineStatuses: map[uuid.UUID]models.DeliveryStatus{
				job.Materials[0].ID: models.DeliveryStatus("Lost"),
			},
		}
		var reqErr *models.RequirementsNotMetError
		_, err := env.materials.ConfirmDelivery(env.ctx, job.ID, "customer", conf)
		if !errors.As(err, &reqErr) {
			t.Fatalf("got %v, want RequirementsNotMetError", err)
		}
	})
}
