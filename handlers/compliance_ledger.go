package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"p9e.in/apex/config"
	"p9e.in/apex/models"
	"p9e.in/apex/store"
)

// ComplianceEngine maintains the per-contractor onboarding ledger. Every
// field mutation recomputes the derived status and clears any standing admin
// override; the override is one-shot by design of the recompute.
type ComplianceEngine struct {
	store store.Store
	log   *logrus.Logger
	now   func() time.Time
}

// NewComplianceEngine creates a compliance engine over the given store.
func NewComplianceEngine(s store.Store) *ComplianceEngine {
	return &ComplianceEngine{store: s, log: config.GetLogger(), now: time.Now}
}

// DocumentKind names the two uploadable compliance documents.
type DocumentKind string

const (
	DocumentW9        DocumentKind = "w9"
	DocumentInsurance DocumentKind = "insurance"
)

// AgreementKind names the three signable agreements.
type AgreementKind string

const (
	AgreementIndependent  AgreementKind = "independent_agreement"
	AgreementLiability    AgreementKind = "liability_waiver"
	AgreementPaymentTerms AgreementKind = "payment_terms"
)

func (e *ComplianceEngine) mutate(ctx context.Context, contractorID uuid.UUID, fn func(c *models.ContractorCompliance) error) (*models.ContractorCompliance, error) {
	var out *models.ContractorCompliance
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		c, err := tx.Compliance(ctx, contractorID)
		if errors.Is(err, store.ErrNotFound) {
			c = &models.ContractorCompliance{ContractorID: contractorID, Status: models.ComplianceBlocked}
		} else if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		c.Recompute(e.now())
		if err := tx.SaveCompliance(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// SetDocument records an upload (or removal) of the W9 or insurance
// certificate. The insurance expiry travels with the insurance upload.
func (e *ComplianceEngine) SetDocument(ctx context.Context, contractorID uuid.UUID, kind DocumentKind, uploaded bool, insuranceExpiry *time.Time) (*models.ContractorCompliance, error) {
	out, err := e.mutate(ctx, contractorID, func(c *models.ContractorCompliance) error {
		switch kind {
		case DocumentW9:
			c.W9Uploaded = uploaded
		case DocumentInsurance:
			c.InsuranceUploaded = uploaded
			if insuranceExpiry != nil {
				c.InsuranceExpiryDate = insuranceExpiry
			}
			if !uploaded {
				c.InsuranceExpiryDate = nil
			}
		default:
			return &models.RequirementsNotMetError{Missing: []string{"unknown document kind " + string(kind)}}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"contractor_id": contractorID,
		"document":      kind,
		"status":        out.Status,
	}).Info("compliance document updated")
	return out, nil
}

// SetAgreement records a signature (or withdrawal) on one of the three
// agreements.
func (e *ComplianceEngine) SetAgreement(ctx context.Context, contractorID uuid.UUID, kind AgreementKind, signed bool) (*models.ContractorCompliance, error) {
	out, err := e.mutate(ctx, contractorID, func(c *models.ContractorCompliance) error {
		switch kind {
		case AgreementIndependent:
			c.IndependentAgreementSigned = signed
		case AgreementLiability:
			c.LiabilityWaiverSigned = signed
		case AgreementPaymentTerms:
			c.PaymentTermsSigned = signed
		default:
			return &models.RequirementsNotMetError{Missing: []string{"unknown agreement kind " + string(kind)}}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"contractor_id": contractorID,
		"agreement":     kind,
		"status":        out.Status,
	}).Info("compliance agreement updated")
	return out, nil
}

// OverrideStatus lets an admin force the status regardless of the underlying
// fields. The override stands only until the next field mutation, which
// recomputes from scratch.
func (e *ComplianceEngine) OverrideStatus(ctx context.Context, contractorID uuid.UUID, actorRole string, status models.ComplianceStatus) (*models.ContractorCompliance, error) {
	if actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	if status != models.ComplianceActive && status != models.ComplianceBlocked {
		return nil, &models.RequirementsNotMetError{Missing: []string{"status must be active or blocked"}}
	}
	var out *models.ContractorCompliance
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		c, err := tx.Compliance(ctx, contractorID)
		if errors.Is(err, store.ErrNotFound) {
			c = &models.ContractorCompliance{ContractorID: contractorID}
		} else if err != nil {
			return err
		}
		c.Status = status
		c.StatusOverridden = true
		if err := tx.SaveCompliance(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"contractor_id": contractorID,
		"status":        status,
	}).Warn("compliance status overridden")
	return out, nil
}

// Get returns the contractor's compliance record, or a fresh blocked record
// if none exists yet.
func (e *ComplianceEngine) Get(ctx context.Context, contractorID uuid.UUID) (*models.ContractorCompliance, error) {
	c, err := e.store.Compliance(ctx, contractorID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.ContractorCompliance{ContractorID: contractorID, Status: models.ComplianceBlocked}, nil
	}
	return c, err
}

// InsuranceExpiringWithin lists contractors whose insurance lapses inside the
// window. Presentation-time computation over the stored date; nothing is
// scheduled.
func (e *ComplianceEngine) InsuranceExpiringWithin(ctx context.Context, window time.Duration) ([]models.ContractorCompliance, error) {
	all, err := e.store.Compliances(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now()
	cutoff := now.Add(window)
	var expiring []models.ContractorCompliance
	for _, c := range all {
		if c.InsuranceExpiryDate == nil {
			continue
		}
		if c.InsuranceExpiryDate.After(now) && !c.InsuranceExpiryDate.After(cutoff) {
			expiring = append(expiring, c)
		}
	}
	return expiring, nil
}
