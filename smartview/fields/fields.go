// Package fields is the static field registry for the smart view engine.
//
// It maps field identifiers to their value types and extracts field values
// from task records. The catalog is process-wide static data; adding a field
// is a data change, not new dispatch logic.
package fields

import (
	"time"

	"github.com/krew-solutions/smartview-go/smartview/task"
)

// FieldType classifies a filterable field's values. The type decides which
// operators apply and how condition values compare against task values.
type FieldType string

const (
	TypeText          FieldType = "text"
	TypeNumber        FieldType = "number"
	TypePriority      FieldType = "priority"
	TypeStateCategory FieldType = "state_category"
	TypeDate          FieldType = "date"
	TypeUser          FieldType = "user"
	TypeLabel         FieldType = "label"
	TypeProject       FieldType = "project"
)

// Field is one catalog entry.
type Field struct {
	ID       string    // ID is the field identifier used in filter conditions.
	Type     FieldType // Type decides operator semantics.
	Category string    // Category groups fields for presentation purposes.
}

// Field identifiers known to the registry.
const (
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldStateCategory  = "state_category"
	FieldPriority       = "priority"
	FieldAssigneeID     = "assignee_id"
	FieldLabelIDs       = "label_ids"
	FieldProjectID      = "project_id"
	FieldDueDate        = "due_date"
	FieldCreatedAt      = "created_at"
	FieldCompletedAt    = "completed_at"
	FieldSequenceNumber = "sequence_number"
)

var catalog = map[string]Field{
	FieldTitle:          {ID: FieldTitle, Type: TypeText, Category: "content"},
	FieldDescription:    {ID: FieldDescription, Type: TypeText, Category: "content"},
	FieldStateCategory:  {ID: FieldStateCategory, Type: TypeStateCategory, Category: "workflow"},
	FieldPriority:       {ID: FieldPriority, Type: TypePriority, Category: "workflow"},
	FieldAssigneeID:     {ID: FieldAssigneeID, Type: TypeUser, Category: "people"},
	FieldLabelIDs:       {ID: FieldLabelIDs, Type: TypeLabel, Category: "organization"},
	FieldProjectID:      {ID: FieldProjectID, Type: TypeProject, Category: "organization"},
	FieldDueDate:        {ID: FieldDueDate, Type: TypeDate, Category: "dates"},
	FieldCreatedAt:      {ID: FieldCreatedAt, Type: TypeDate, Category: "dates"},
	FieldCompletedAt:    {ID: FieldCompletedAt, Type: TypeDate, Category: "dates"},
	FieldSequenceNumber: {ID: FieldSequenceNumber, Type: TypeNumber, Category: "content"},
}

// Lookup returns the catalog entry for a field id.
func Lookup(fieldID string) (Field, bool) {
	f, ok := catalog[fieldID]
	return f, ok
}

// TypeOf returns the value type of a field. Unknown field ids fall back to
// TypeText so a single unrecognized field never aborts evaluation of the
// rest of a filter tree.
func TypeOf(fieldID string) FieldType {
	if f, ok := catalog[fieldID]; ok {
		return f.Type
	}
	return TypeText
}

// All returns the catalog entries in a deterministic order.
func All() []Field {
	ids := []string{
		FieldTitle, FieldDescription, FieldStateCategory, FieldPriority,
		FieldAssigneeID, FieldLabelIDs, FieldProjectID, FieldDueDate,
		FieldCreatedAt, FieldCompletedAt, FieldSequenceNumber,
	}
	out := make([]Field, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalog[id])
	}
	return out
}

// Value extracts a task's value for a field id.
//
// Absent values are returned as nil: an unset assignee, a nil date pointer,
// an empty label list and an unknown field id all extract to nil. Operator
// evaluation treats nil uniformly as "no value".
func Value(t task.Task, fieldID string) any {
	switch fieldID {
	case FieldTitle:
		return emptyAsNil(t.Title)
	case FieldDescription:
		return emptyAsNil(t.Description)
	case FieldStateCategory:
		return emptyAsNil(string(t.StateCategory))
	case FieldPriority:
		return emptyAsNil(t.Priority)
	case FieldAssigneeID:
		return emptyAsNil(t.AssigneeID)
	case FieldLabelIDs:
		if len(t.LabelIDs) == 0 {
			return nil
		}
		return t.LabelIDs
	case FieldProjectID:
		return emptyAsNil(t.ProjectID)
	case FieldDueDate:
		return timeAsNil(t.DueDate)
	case FieldCreatedAt:
		if t.CreatedAt.IsZero() {
			return nil
		}
		return t.CreatedAt
	case FieldCompletedAt:
		return timeAsNil(t.CompletedAt)
	case FieldSequenceNumber:
		return t.SequenceNumber
	}
	return nil
}

func emptyAsNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timeAsNil(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}
