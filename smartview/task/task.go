// Package task defines the read model the smart view engine operates on.
//
// The engine never mutates a Task. Storage adapters produce Tasks; the
// filter/view packages only read them.
package task

import "time"

// StateCategory is the workflow bucket a task's state maps to.
// Concrete workflow states (e.g. "Todo", "In Review") are a presentation
// concern; the engine only sees the category.
type StateCategory string

const (
	StateBacklog    StateCategory = "backlog"
	StateInProgress StateCategory = "in_progress"
	StateDone       StateCategory = "done"
)

// StateCategories lists all categories in their natural workflow order.
// Grouping by state category presents buckets in this order.
var StateCategories = []StateCategory{StateBacklog, StateInProgress, StateDone}

// Priority levels. Stored as strings so new levels are a data change.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is a single task record as exposed by the storage layer.
type Task struct {
	ID             string        // ID is the task identifier, unique per workspace.
	SequenceNumber int64         // SequenceNumber is the human-facing task number.
	Title          string        // Title is the short task summary.
	Description    string        // Description is the free-form body, may be empty.
	StateCategory  StateCategory // StateCategory is the workflow bucket.
	Priority       string        // Priority is empty when unset.
	AssigneeID     string        // AssigneeID is empty when unassigned.
	LabelIDs       []string      // LabelIDs holds zero or more label identifiers.
	ProjectID      string        // ProjectID is empty for workspace-level tasks.
	DueDate        *time.Time    // DueDate is nil when no due date is set.
	CreatedAt      time.Time     // CreatedAt is the creation timestamp (UTC).
	CompletedAt    *time.Time    // CompletedAt is nil until the task is done.
}
