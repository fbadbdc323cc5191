// Package filter models smart view filters as a recursive boolean tree and
// evaluates them against task records.
//
// The tree is a tagged union with exactly two variants: Condition (one
// field/operator/value test) and Group (an AND/OR combination of nested
// nodes). Nodes are visitable, so evaluation and SQL compilation are
// visitors over the same structure instead of shape-sniffing at call sites.
package filter

import "github.com/krew-solutions/smartview-go/smartview/operators"

// BoolOperator combines a group's children.
type BoolOperator string

const (
	BoolAnd BoolOperator = "and"
	BoolOr  BoolOperator = "or"
)

// Node is either a Condition or a Group.
type Node interface {
	Accept(Visitor) error
}

// Visitor dispatches over the two node variants.
type Visitor interface {
	VisitCondition(Condition) error
	VisitGroup(Group) error
}

// Condition is a single field/operator/value test. Value is a scalar, an
// array of scalars, or a template token string, depending on what the
// field's type and operator expect.
type Condition struct {
	Field    string
	Operator operators.Operator
	Value    any
}

func (c Condition) Accept(v Visitor) error {
	return v.VisitCondition(c)
}

// Group combines conditions and nested groups with one boolean operator.
// Groups are rebuilt from stored configuration on each execution and are
// never cyclic.
type Group struct {
	Operator   BoolOperator
	Conditions []Node
}

func (g Group) Accept(v Visitor) error {
	return v.VisitGroup(g)
}

// Where builds a single condition.
func Where(field string, op operators.Operator, value any) Condition {
	return Condition{Field: field, Operator: op, Value: value}
}

// And builds a conjunction group.
func And(nodes ...Node) Group {
	return Group{Operator: BoolAnd, Conditions: nodes}
}

// Or builds a disjunction group.
func Or(nodes ...Node) Group {
	return Group{Operator: BoolOr, Conditions: nodes}
}
