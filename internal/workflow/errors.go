// errors.go: typed workflow failures, kept distinct so callers can message accurately
package workflow

import (
	"fmt"

	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
)

// IllegalTransitionError reports a transition attempt outside the allowed
// table. The repair work is left unchanged.
type IllegalTransitionError struct {
	From datastore.WorkStatus
	To   datastore.WorkStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %s to %s", e.From, e.To)
}

// ErrorCategory implements errors.CategorizedError.
func (e *IllegalTransitionError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryWorkflow
}

// EvidenceRequiredError reports a completion submission without an
// after-remediation photo. The repair work remains in progress, the UI
// should prompt for a photo rather than a permission message.
type EvidenceRequiredError struct {
	WorkID       uint
	InspectionID uint
}

func (e *EvidenceRequiredError) Error() string {
	return fmt.Sprintf("repair work %d cannot be submitted: no after-remediation evidence for inspection %d",
		e.WorkID, e.InspectionID)
}

// ErrorCategory implements errors.CategorizedError.
func (e *EvidenceRequiredError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryEvidence
}

// AuthorizationError reports an actor role that is not allowed to perform
// the attempted operation. Distinct from EvidenceRequiredError so the UI
// message is accurate.
type AuthorizationError struct {
	Role      datastore.ActorRole
	Operation string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %s is not allowed to %s", e.Role, e.Operation)
}

// ErrorCategory implements errors.CategorizedError.
func (e *AuthorizationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryAuthorization
}
