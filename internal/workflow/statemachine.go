// statemachine.go: the authoritative repair work transition table
//
// All guard logic lives here. UI layers only ever call Service.Transition and
// render based on its result, they never set status directly.
package workflow

import (
	"fmt"

	"github.com/pipewatch/pipewatch-go/internal/datastore"
)

// transitionRule describes the guards on one allowed transition.
type transitionRule struct {
	adminOnly        bool // only admins may perform this transition
	requiresEvidence bool // at least one after-tagged media item must exist
}

// transitionTable is the complete set of legal transitions. Any (from, to)
// pair absent from the table is illegal. Rejection from pending_approval goes
// back to in_progress, not planned: rework preserves prior evidence and
// history rather than restarting the task.
var transitionTable = map[datastore.WorkStatus]map[datastore.WorkStatus]transitionRule{
	datastore.StatusPlanned: {
		datastore.StatusInProgress: {},
		datastore.StatusCancelled:  {},
	},
	datastore.StatusInProgress: {
		datastore.StatusCancelled:       {},
		datastore.StatusPendingApproval: {requiresEvidence: true},
	},
	datastore.StatusPendingApproval: {
		datastore.StatusCompleted:  {adminOnly: true},
		datastore.StatusInProgress: {adminOnly: true}, // rejection
	},
}

// ruleFor looks up the guard rule for a transition, reporting whether the
// transition is legal at all.
func ruleFor(from, to datastore.WorkStatus) (transitionRule, bool) {
	targets, ok := transitionTable[from]
	if !ok {
		return transitionRule{}, false
	}
	rule, ok := targets[to]
	return rule, ok
}

// roleAllowed checks the actor role against a rule. Non-approval transitions
// are open to field operators (inspectors) and admins, approval transitions
// to admins only. Analysts and guests cannot drive the workflow.
func roleAllowed(rule transitionRule, role datastore.ActorRole) bool {
	if rule.adminOnly {
		return role == datastore.RoleAdmin
	}
	return role == datastore.RoleAdmin || role == datastore.RoleInspector
}

// AllowedTargets lists the statuses reachable from the given status,
// regardless of guards. Used by the UI to render available actions.
func AllowedTargets(from datastore.WorkStatus) []datastore.WorkStatus {
	targets := transitionTable[from]
	if len(targets) == 0 {
		return nil
	}

	// Stable order for rendering and tests.
	order := []datastore.WorkStatus{
		datastore.StatusPlanned,
		datastore.StatusInProgress,
		datastore.StatusPendingApproval,
		datastore.StatusCompleted,
		datastore.StatusCancelled,
	}
	var out []datastore.WorkStatus
	for _, status := range order {
		if _, ok := targets[status]; ok {
			out = append(out, status)
		}
	}
	return out
}

func describeTransition(from, to datastore.WorkStatus) string {
	return fmt.Sprintf("transition repair work from %s to %s", from, to)
}
