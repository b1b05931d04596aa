// service.go: repair work lifecycle operations
package workflow

import (
	"log/slog"
	"time"

	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"github.com/pipewatch/pipewatch-go/internal/logging"
)

// EvidenceGate is the pure predicate over an inspection's media deciding
// whether after-remediation evidence exists. Satisfied by the datastore.
type EvidenceGate interface {
	HasAfterEvidence(inspectionID uint) (bool, error)
}

// Service drives repair works through their lifecycle. It is the sole
// mutation path for repair work status.
type Service struct {
	ds   datastore.Interface
	gate EvidenceGate
	log  *slog.Logger
}

// NewService wires the workflow service. The datastore doubles as the
// evidence gate.
func NewService(ds datastore.Interface) *Service {
	log := logging.ForService("workflow")
	if log == nil {
		log = slog.Default()
	}
	return &Service{ds: ds, gate: ds, log: log}
}

// CreateRequest carries the fields for a new repair work order.
type CreateRequest struct {
	InspectionID uint
	Title        string
	Description  string
	Priority     datastore.WorkPriority
	PlannedDate  *time.Time
	AssignedTo   *uint
	Notes        string
}

// CreateRepairWork opens a new repair work order in the planned status.
// The inspection must exist and have a found defect, work is remediation and
// there is nothing to remediate otherwise.
func (s *Service) CreateRepairWork(req *CreateRequest, role datastore.ActorRole) (*datastore.RepairWork, error) {
	if role != datastore.RoleAdmin && role != datastore.RoleInspector {
		return nil, &AuthorizationError{Role: role, Operation: "create repair work"}
	}

	if req.Title == "" {
		return nil, errors.Newf("repair work title is required").
			Component("workflow").
			Category(errors.CategoryValidation).
			Build()
	}
	priority := req.Priority
	if priority == "" {
		priority = datastore.PriorityMedium
	}
	if !priority.Valid() {
		return nil, errors.Newf("unknown priority %q", req.Priority).
			Component("workflow").
			Category(errors.CategoryValidation).
			Build()
	}

	inspection, err := s.ds.GetInspection(req.InspectionID)
	if err != nil {
		return nil, err
	}
	if !inspection.DefectFound {
		return nil, errors.Newf("inspection %d has no found defect", inspection.ID).
			Component("workflow").
			Category(errors.CategoryValidation).
			Context("inspection_id", inspection.ID).
			Build()
	}

	work := &datastore.RepairWork{
		InspectionID: inspection.ID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     priority,
		Status:       datastore.StatusPlanned,
		PlannedDate:  req.PlannedDate,
		AssignedTo:   req.AssignedTo,
		Notes:        req.Notes,
	}
	if err := s.ds.SaveRepairWork(work); err != nil {
		return nil, err
	}

	s.log.Info("Repair work created",
		"repair_work_id", work.ID,
		"inspection_id", work.InspectionID,
		"priority", work.Priority)
	return work, nil
}

// UpdateRequest carries non-status edits to an existing repair work. Nil
// fields are left unchanged. Status is deliberately absent, it moves only
// through Transition.
type UpdateRequest struct {
	Title       *string
	Description *string
	Priority    *datastore.WorkPriority
	PlannedDate *time.Time
	AssignedTo  *uint
	Notes       *string
}

// UpdateRepairWork edits the descriptive fields of a repair work order.
func (s *Service) UpdateRepairWork(workID uint, req *UpdateRequest, role datastore.ActorRole) (*datastore.RepairWork, error) {
	if role != datastore.RoleAdmin && role != datastore.RoleInspector {
		return nil, &AuthorizationError{Role: role, Operation: "update repair work"}
	}

	work, err := s.ds.GetRepairWork(workID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, errors.Newf("repair work title is required").
				Component("workflow").
				Category(errors.CategoryValidation).
				Build()
		}
		work.Title = *req.Title
	}
	if req.Description != nil {
		work.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, errors.Newf("unknown priority %q", *req.Priority).
				Component("workflow").
				Category(errors.CategoryValidation).
				Build()
		}
		work.Priority = *req.Priority
	}
	if req.PlannedDate != nil {
		work.PlannedDate = req.PlannedDate
	}
	if req.AssignedTo != nil {
		work.AssignedTo = req.AssignedTo
	}
	if req.Notes != nil {
		work.Notes = *req.Notes
	}

	if err := s.ds.UpdateRepairWork(work); err != nil {
		return nil, err
	}

	s.log.Info("Repair work updated",
		"repair_work_id", work.ID,
		"role", role)
	return work, nil
}

// Transition moves one repair work to the target status, enforcing the
// transition table, role guards and the evidence gate. The guard check and
// the status write apply as one atomic compare-and-swap: of any concurrent
// attempts from the same source status exactly one succeeds, the rest see the
// actual current status in their error.
func (s *Service) Transition(workID uint, target datastore.WorkStatus, role datastore.ActorRole) (*datastore.RepairWork, error) {
	work, err := s.ds.GetRepairWork(workID)
	if err != nil {
		return nil, err
	}

	rule, legal := ruleFor(work.Status, target)
	if !legal {
		return nil, &IllegalTransitionError{From: work.Status, To: target}
	}

	if !roleAllowed(rule, role) {
		return nil, &AuthorizationError{Role: role, Operation: describeTransition(work.Status, target)}
	}

	// Evidence is re-evaluated on every attempt: deleting the last
	// after-photo re-blocks submission, it never reverts work already past
	// this gate.
	if rule.requiresEvidence {
		ok, err := s.gate.HasAfterEvidence(work.InspectionID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &EvidenceRequiredError{WorkID: work.ID, InspectionID: work.InspectionID}
		}
	}

	// CompletedDate is set exactly on entry to completed, never elsewhere.
	var completedDate *time.Time
	if target == datastore.StatusCompleted {
		now := time.Now()
		completedDate = &now
	}

	updated, err := s.ds.TransitionRepairWorkStatus(work.ID, work.Status, target, completedDate)
	if err != nil {
		if errors.Is(err, datastore.ErrStatusConflict) && updated != nil {
			// Lost the race: report against the status the row actually has now.
			return nil, &IllegalTransitionError{From: updated.Status, To: target}
		}
		return nil, err
	}

	s.log.Info("Repair work transitioned",
		"repair_work_id", updated.ID,
		"from", work.Status,
		"to", updated.Status,
		"role", role)
	return updated, nil
}

// HasAfterEvidence exposes the evidence gate for UI rendering. The same
// predicate is re-checked authoritatively inside Transition.
func (s *Service) HasAfterEvidence(inspectionID uint) (bool, error) {
	return s.gate.HasAfterEvidence(inspectionID)
}

// DeleteRepairWork removes a repair work order. Admin only, and the parent
// inspection is never mutated.
func (s *Service) DeleteRepairWork(workID uint, role datastore.ActorRole) error {
	if role != datastore.RoleAdmin {
		return &AuthorizationError{Role: role, Operation: "delete repair work"}
	}
	return s.ds.DeleteRepairWork(workID)
}
