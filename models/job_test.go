package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestJobStatusCanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobOpen, JobInProgress, true},
		{JobInProgress, JobComplete, true},
		{JobComplete, JobPaid, true},
		{JobOpen, JobComplete, false},
		{JobOpen, JobPaid, false},
		{JobInProgress, JobPaid, false},
		{JobInProgress, JobOpen, false},
		{JobComplete, JobInProgress, false},
		{JobPaid, JobComplete, false},
		{JobPaid, JobOpen, false},
		{JobOpen, JobOpen, false},
		{JobStatus("Bogus"), JobInProgress, false},
		{JobOpen, JobStatus("Bogus"), false},
	}
	for _, tt := range tests {
		if got := tt.from.CanAdvanceTo(tt.to); got != tt.want {
			t.Errorf("CanAdvanceTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCompletionBlockersAllCombinations(t *testing.T) {
	contractorID := uuid.New()
	// Exhaust the four readiness dimensions; the blocker list must contain
	// exactly the failing ones.
	for _, checklist := range []bool{false, true} {
		for _, before := range []bool{false, true} {
			for _, after := range []bool{false, true} {
				for _, materialIssue := range []bool{false, true} {
					job := &Job{
						AssignedContractorID: &contractorID,
						ChecklistCompleted:   checklist,
					}
					if before {
						job.BeforePhotoCount = 2
					}
					if after {
						job.AfterPhotoCount = 1
					}
					if materialIssue {
						bad := DeliveryDamaged
						job.Materials = []MaterialLine{{Status: MaterialFMVerified, DeliveryStatus: &bad}}
					} else {
						job.Materials = []MaterialLine{{Status: MaterialFMVerified}}
					}

					blockers := job.CompletionBlockers()
					want := map[string]bool{
						BlockerChecklistIncomplete: !checklist,
						BlockerNoBeforePhotos:      !before,
						BlockerNoAfterPhotos:       !after,
						BlockerMaterialIssues:      materialIssue,
					}
					wantCount := 0
					for _, w := range want {
						if w {
							wantCount++
						}
					}
					if len(blockers) != wantCount {
						t.Fatalf("checklist=%v before=%v after=%v issue=%v: got %d blockers %v, want %d",
							checklist, before, after, materialIssue, len(blockers), blockers, wantCount)
					}
					for _, b := range blockers {
						if !want[b] {
							t.Errorf("unexpected blocker %q for checklist=%v before=%v after=%v issue=%v",
								b, checklist, before, after, materialIssue)
						}
					}
				}
			}
		}
	}
}

func TestCompletionBlockersNoContractor(t *testing.T) {
	job := &Job{
		ChecklistCompleted: true,
		BeforePhotoCount:   1,
		AfterPhotoCount:    1,
	}
	blockers := job.CompletionBlockers()
	if len(blockers) != 1 || blockers[0] != BlockerNoContractor {
		t.Errorf("got %v, want just %q", blockers, BlockerNoContractor)
	}
}

func TestChecklistComplete(t *testing.T) {
	tests := []struct {
		name  string
		items []ChecklistItem
		want  bool
	}{
		{"empty checklist is complete", nil, true},
		{"all done", []ChecklistItem{{Done: true}, {Done: true}}, true},
		{"one pending", []ChecklistItem{{Done: true}, {Done: false}}, false},
		{"all pending", []ChecklistItem{{Done: false}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChecklistComplete(tt.items); got != tt.want {
				t.Errorf("ChecklistComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisitSatisfied(t *testing.T) {
	tests := []struct {
		name      string
		mandatory bool
		status    VisitStatus
		want      bool
	}{
		{"not mandated pending", false, VisitPending, true},
		{"not mandated in progress", false, VisitInProgress, true},
		{"mandated pending", true, VisitPending, false},
		{"mandated in progress", true, VisitInProgress, false},
		{"mandated completed", true, VisitCompleted, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &Job{MandatorySiteVisit: tt.mandatory, VisitStatus: tt.status}
			if got := job.VisitSatisfied(); got != tt.want {
				t.Errorf("VisitSatisfied() = %v, want %v", got, tt.want)
			}
		})
	}
}
