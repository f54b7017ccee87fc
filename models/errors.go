package models

import (
	"errors"
	"fmt"
	"strings"
)

// Workflow error kinds. All are recoverable validation outcomes surfaced to
// the acting user; none are fatal and nothing retries automatically. Errors
// that carry reason lists always carry the complete list: the common
// real-world failure is a user fixing one blocker and being surprised by
// another.
var (
	// ErrComplianceBlocked means a contractor tried to accept a job while
	// their onboarding record is incomplete or blocked.
	ErrComplianceBlocked = errors.New("contractor compliance is blocked")

	// ErrAlreadyAssigned means job acceptance raced another contractor.
	ErrAlreadyAssigned = errors.New("job is already assigned to a contractor")

	// ErrForbidden means the acting role may not perform the operation.
	ErrForbidden = errors.New("role is not permitted to perform this action")
)

// RequirementsNotMetError enumerates every unmet precondition of an
// operation, e.g. marking a job complete before readiness.
type RequirementsNotMetError struct {
	Missing []string
}

func (e *RequirementsNotMetError) Error() string {
	return "requirements not met: " + strings.Join(e.Missing, "; ")
}

// PayoutBlockedError enumerates every failing payout gate clause.
type PayoutBlockedError struct {
	Reasons []string
}

func (e *PayoutBlockedError) Error() string {
	return "payout blocked: " + strings.Join(e.Reasons, "; ")
}

// InvalidTransitionError is returned for any attempt to move a job, payout,
// or flagged item backward or to skip a required state. State is left
// untouched.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}
