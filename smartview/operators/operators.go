// Package operators evaluates filter condition operators against extracted
// task values, with type-aware semantics per field type.
package operators

import "github.com/krew-solutions/smartview-go/smartview/fields"

type Operator string

const (
	// Equality

	OpEq  Operator = "eq"
	OpNeq Operator = "neq"

	// Membership

	OpIn  Operator = "in"
	OpNin Operator = "nin"

	// Ordering

	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"

	// Substring

	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"

	// Presence

	OpIsNull    Operator = "is_null"
	OpIsNotNull Operator = "is_not_null"
)

// operatorsByType is the legal operator set per field type. A plain lookup
// table: adding a field type is a data change.
var operatorsByType = map[fields.FieldType][]Operator{
	fields.TypeText:          {OpContains, OpNotContains, OpEq, OpNeq, OpIsNull, OpIsNotNull},
	fields.TypeNumber:        {OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte},
	fields.TypeDate:          {OpEq, OpLt, OpLte, OpGt, OpGte, OpIsNull, OpIsNotNull},
	fields.TypePriority:      {OpEq, OpNeq, OpIn, OpNin, OpIsNull, OpIsNotNull},
	fields.TypeStateCategory: {OpEq, OpNeq, OpIn, OpNin, OpIsNull, OpIsNotNull},
	fields.TypeUser:          {OpEq, OpNeq, OpIn, OpNin, OpIsNull, OpIsNotNull},
	fields.TypeLabel:         {OpEq, OpNeq, OpIn, OpNin, OpIsNull, OpIsNotNull},
	fields.TypeProject:       {OpEq, OpNeq, OpIn, OpNin, OpIsNull, OpIsNotNull},
}

// SupportedBy reports whether op is legal for the given field type.
func SupportedBy(t fields.FieldType, op Operator) bool {
	for _, legal := range operatorsByType[t] {
		if legal == op {
			return true
		}
	}
	return false
}

// For returns the legal operator set for a field type.
func For(t fields.FieldType) []Operator {
	ops := operatorsByType[t]
	out := make([]Operator, len(ops))
	copy(out, ops)
	return out
}
