package runs

import (
	"github.com/google/uuid"

	"go-deepagent/internal/workflow"
)

// Start kicks off the workflow for one query. Sent once per actor.
type Start struct {
	ID    uuid.UUID
	Query string
}

// GetStatus asks for a snapshot of the run state. The actor responds with a
// *workflow.State clone.
type GetStatus struct{}

// Cancel aborts the run. The actor responds with a CancelAck.
type Cancel struct{}

// CancelAck reports whether a running workflow was actually signalled.
type CancelAck struct {
	Cancelled bool
}

// progress and finished are internal: the workflow goroutine posts them back
// to the actor so all state mutation stays inside the mailbox.
type progress struct {
	node     string
	snapshot *workflow.State
}

type finished struct {
	snapshot *workflow.State
}
