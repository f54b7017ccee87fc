package config

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"p9e.in/apex/models"
)

// SeedUsers creates one demo user per portal role plus the workflow fixtures
// the demo environment expects. Idempotent; existing records are left alone.
func SeedUsers() {
	type seedUser struct {
		Name  string
		Email string
		Phone string
		Role  string
		Trade string
	}
	seeds := []seedUser{
		{Name: "Demo Admin", Email: "admin@example.com", Phone: "5550000001", Role: models.RoleAdmin},
		{Name: "Demo Field Manager", Email: "fm@example.com", Phone: "5550000002", Role: models.RoleFM},
		{Name: "Demo Contractor", Email: "contractor@example.com", Phone: "5550000003", Role: models.RoleContractor, Trade: "painting"},
		{Name: "Demo Customer", Email: "customer@example.com", Phone: "5550000004", Role: models.RoleCustomer},
		{Name: "Demo Investor", Email: "investor@example.com", Phone: "5550000005", Role: models.RoleInvestor},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme123"), bcrypt.DefaultCost)
	if err != nil {
		log.Println("seeding: failed to hash demo password:", err)
		return
	}

	var contractor models.User
	for _, s := range seeds {
		var existing models.User
		err := DB.Where("phone = ?", s.Phone).First(&existing).Error
		if err == nil {
			if s.Role == models.RoleContractor {
				contractor = existing
			}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Println("seeding: user lookup failed:", err)
			return
		}
		u := models.User{
			Name:         s.Name,
			Email:        s.Email,
			Phone:        s.Phone,
			PasswordHash: string(hash),
			Role:         s.Role,
			Trade:        s.Trade,
			IsActive:     true,
		}
		if err := DB.Create(&u).Error; err != nil {
			log.Println("seeding: failed to create user:", err)
			return
		}
		if s.Role == models.RoleContractor {
			contractor = u
		}
		log.Printf("seeding: created %s user %s", s.Role, s.Email)
	}

	if contractor.ID != uuid.Nil {
		seedContractorCompliance(contractor)
		seedDemoJob(contractor)
	}
}

// seedContractorCompliance gives the demo contractor a fully active record
// so the happy path works out of the box.
func seedContractorCompliance(contractor models.User) {
	var existing models.ContractorCompliance
	if err := DB.First(&existing, "contractor_id = ?", contractor.ID).Error; err == nil {
		return
	}
	expiry := time.Now().AddDate(1, 0, 0)
	c := models.ContractorCompliance{
		ContractorID:               contractor.ID,
		W9Uploaded:                 true,
		InsuranceUploaded:          true,
		InsuranceExpiryDate:        &expiry,
		IndependentAgreementSigned: true,
		LiabilityWaiverSigned:      true,
		PaymentTermsSigned:         true,
	}
	c.Recompute(time.Now())
	if err := DB.Create(&c).Error; err != nil {
		log.Println("seeding: failed to create compliance record:", err)
		return
	}
	log.Println("seeding: created active compliance record for demo contractor")
}

func seedDemoJob(contractor models.User) {
	var count int64
	DB.Model(&models.Job{}).Count(&count)
	if count > 0 {
		return
	}
	job := models.Job{
		PropertyAddress:    "1427 Maple Grove Ln",
		City:               "Austin",
		CustomerName:       "Demo Customer",
		CustomerEmail:      "customer@example.com",
		Trade:              contractor.Trade,
		JobType:            models.JobTypeStandard,
		Status:             models.JobOpen,
		MandatorySiteVisit: true,
		VisitStatus:        models.VisitPending,
		Latitude:           30.2672,
		Longitude:          -97.7431,
	}
	if err := DB.Create(&job).Error; err != nil {
		log.Println("seeding: failed to create demo job:", err)
		return
	}
	checklist := []string{"Prep and mask surfaces", "Apply primer coat", "Apply finish coat"}
	for _, label := range checklist {
		item := models.ChecklistItem{JobID: job.ID, Label: label}
		if err := DB.Create(&item).Error; err != nil {
			log.Println("seeding: failed to create checklist item:", err)
			return
		}
	}
	materials := []models.MaterialLine{
		{JobID: job.ID, Name: "Interior latex paint", SKU: "PT-2201", Quantity: 4, Supplier: "BuildMart", PriceRange: "$30-40", Status: models.MaterialAIGenerated},
		{JobID: job.ID, Name: "Painter's tape", SKU: "PT-0113", Quantity: 6, Supplier: "BuildMart", PriceRange: "$5-8", Status: models.MaterialAIGenerated},
	}
	for i := range materials {
		if err := DB.Create(&materials[i]).Error; err != nil {
			log.Println("seeding: failed to create material line:", err)
			return
		}
	}
	log.Println("seeding: created demo job with checklist and material suggestions")
}
