package models

import "testing"

func line(status MaterialStatus, delivery *DeliveryStatus) MaterialLine {
	return MaterialLine{Status: status, DeliveryStatus: delivery}
}

func TestDeriveMaterialStatus(t *testing.T) {
	correct := DeliveryCorrect
	missing := DeliveryMissingItems
	damaged := DeliveryDamaged
	wrong := DeliveryWrongItems

	tests := []struct {
		name  string
		lines []MaterialLine
		want  MaterialStatus
	}{
		{"empty list verifies vacuously", nil, MaterialFMVerified},
		{"all verified", []MaterialLine{
			line(MaterialFMVerified, nil),
			line(MaterialFMVerified, &correct),
		}, MaterialFMVerified},
		{"one ai suggestion pending", []MaterialLine{
			line(MaterialFMVerified, nil),
			line(MaterialAIGenerated, nil),
		}, MaterialAIGenerated},
		{"all ai suggestions", []MaterialLine{
			line(MaterialAIGenerated, nil),
		}, MaterialAIGenerated},
		{"missing items dominates verified", []MaterialLine{
			line(MaterialFMVerified, &correct),
			line(MaterialFMVerified, &missing),
		}, MaterialIssuesFound},
		{"damaged dominates ai", []MaterialLine{
			line(MaterialAIGenerated, nil),
			line(MaterialFMVerified, &damaged),
		}, MaterialIssuesFound},
		{"wrong items dominates everything", []MaterialLine{
			line(MaterialFMVerified, &correct),
			line(MaterialAIGenerated, nil),
			line(MaterialFMVerified, &wrong),
		}, MaterialIssuesFound},
		{"correct delivery does not flag", []MaterialLine{
			line(MaterialFMVerified, &correct),
		}, MaterialFMVerified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveMaterialStatus(tt.lines); got != tt.want {
				t.Errorf("DeriveMaterialStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeliveryStatusProblem(t *testing.T) {
	tests := []struct {
		status DeliveryStatus
		want   bool
	}{
		{DeliveryCorrect, false},
		{DeliveryMissingItems, true},
		{DeliveryDamaged, true},
		{DeliveryWrongItems, true},
	}
	for _, tt := range tests {
		if got := tt.status.Problem(); got != tt.want {
			t.Errorf("%s.Problem() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDeliveryStatusValid(t *testing.T) {
	for _, s := range []DeliveryStatus{DeliveryCorrect, DeliveryMissingItems, DeliveryDamaged, DeliveryWrongItems} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if DeliveryStatus("Lost").Valid() {
		t.Error("unknown status should not be valid")
	}
}
