package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/apex/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20072026_create_workflow_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Job{}, &models.ChecklistItem{},
					&models.MaterialLine{}, &models.MaterialDelivery{}, &models.FlaggedItem{},
					&models.ContractorPayout{}, &models.ContractorCompliance{}, &models.Estimate{})
			},
		},
		{
			ID: "05082026_index_open_flagged_items",
			Migrate: func(tx *gorm.DB) error {
				// Partial index for the payout gate's hot query.
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_flagged_items_open ON flagged_items (job_id) WHERE status = 'Open'").Error
			},
		},
	})
	return m.Migrate()
}
