package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/operators"
)

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := Config{
		Filters: filter.And(
			filter.Where(fields.FieldPriority, operators.OpIn, []any{"high", "urgent"}),
			filter.Or(
				filter.Where(fields.FieldAssigneeID, operators.OpEq, "{{current_user}}"),
				filter.Where(fields.FieldAssigneeID, operators.OpIsNull, nil),
			),
		),
		GroupBy:          fields.FieldStateCategory,
		SecondaryGroupBy: fields.FieldPriority,
		SortBy:           fields.FieldDueDate,
		SortOrder:        SortDesc,
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidateAcceptsZeroValue(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
}

func TestValidateRejectsDuplicateGrouping(t *testing.T) {
	cfg := Config{
		GroupBy:          fields.FieldPriority,
		SecondaryGroupBy: fields.FieldPriority,
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "duplicates the primary grouping")
}

func TestValidateRejectsBadSortOrder(t *testing.T) {
	err := Config{SortOrder: SortOrder("sideways")}.Validate()
	assert.ErrorContains(t, err, "sort order")
}

func TestValidateRejectsUnknownFields(t *testing.T) {
	err := Config{GroupBy: "no_such_field"}.Validate()
	assert.ErrorContains(t, err, "unknown field")
}

func TestValidateRejectsIllegalOperatorForFieldType(t *testing.T) {
	cfg := Config{
		Filters: filter.And(
			filter.Where(fields.FieldSequenceNumber, operators.OpContains, "4"),
		),
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "not legal for field")
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := Config{
		Filters: filter.And(
			filter.Where(fields.FieldSequenceNumber, operators.OpContains, "4"),
			filter.Where(fields.FieldDueDate, operators.OpNeq, "2026-01-01"),
		),
		GroupBy:          fields.FieldPriority,
		SecondaryGroupBy: fields.FieldPriority,
		SortOrder:        SortOrder("sideways"),
	}
	err := cfg.Validate()
	assert.Error(t, err)
	for _, fragment := range []string{"sort order", "duplicates", "sequence_number", "due_date"} {
		assert.ErrorContains(t, err, fragment)
	}
}

func TestValidateRejectsUnknownGroupOperator(t *testing.T) {
	cfg := Config{
		Filters: filter.Group{Operator: filter.BoolOperator("xor")},
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "not one of and, or")
}
