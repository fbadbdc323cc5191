package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/operators"
)

func TestDecodeGroup(t *testing.T) {
	raw := `{
		"operator": "and",
		"conditions": [
			{"field": "priority", "operator": "eq", "value": "high"},
			{
				"operator": "or",
				"conditions": [
					{"field": "assignee_id", "operator": "eq", "value": "{{current_user}}"},
					{"field": "assignee_id", "operator": "is_null"}
				]
			}
		]
	}`

	group, err := DecodeGroup([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, BoolAnd, group.Operator)
	require.Len(t, group.Conditions, 2)

	cond, ok := group.Conditions[0].(Condition)
	require.True(t, ok)
	assert.Equal(t, fields.FieldPriority, cond.Field)
	assert.Equal(t, operators.OpEq, cond.Operator)
	assert.Equal(t, "high", cond.Value)

	nested, ok := group.Conditions[1].(Group)
	require.True(t, ok)
	assert.Equal(t, BoolOr, nested.Operator)
	assert.Len(t, nested.Conditions, 2)
}

func TestDecodeEmptyGroup(t *testing.T) {
	group, err := DecodeGroup([]byte(`{"operator": "or", "conditions": []}`))
	require.NoError(t, err)
	assert.Equal(t, BoolOr, group.Operator)
	assert.Empty(t, group.Conditions)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := And(
		Where(fields.FieldPriority, operators.OpIn, []any{"high", "urgent"}),
		Or(
			Where(fields.FieldDueDate, operators.OpLte, "{{end_of_week}}"),
			Where(fields.FieldDueDate, operators.OpIsNull, nil),
		),
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := DecodeGroup(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeRejectsAmbiguousNode(t *testing.T) {
	// Both a field and a conditions list: neither variant.
	_, err := DecodeNode([]byte(`{"field": "title", "operator": "and", "conditions": []}`))
	assert.ErrorIs(t, err, ErrMalformedNode)

	// Neither variant at all.
	_, err = DecodeNode([]byte(`{"operator": "eq", "value": 3}`))
	assert.ErrorIs(t, err, ErrMalformedNode)
}

func TestDecodeRejectsUnknownGroupOperator(t *testing.T) {
	_, err := DecodeNode([]byte(`{"operator": "xor", "conditions": []}`))
	assert.Error(t, err)
}

func TestDecodeGroupRejectsConditionRoot(t *testing.T) {
	_, err := DecodeGroup([]byte(`{"field": "title", "operator": "eq", "value": "x"}`))
	assert.Error(t, err)
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	_, err := DecodeNode([]byte(`{broken`))
	assert.Error(t, err)
}
