package filter

import (
	"errors"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/operators"
	"github.com/krew-solutions/smartview-go/smartview/task"
	"github.com/krew-solutions/smartview-go/smartview/templates"
)

// ErrMalformedNode reports a tree node that is neither a condition nor a
// group. A stored configuration that reaches the engine is assumed
// structurally well-formed, so hitting this is an internal invariant
// violation, not a recoverable user error.
var ErrMalformedNode = errors.New("filter: node is neither a condition nor a group")

// Match evaluates a filter tree against one task.
//
// An AND group with no children is vacuously true; an OR group with no
// children is vacuously false. Children evaluate left to right with
// short-circuiting; evaluation is side-effect-free, so short-circuiting is
// purely a performance choice. A single malformed condition evaluates to
// false and degrades the view instead of breaking it.
func Match(t task.Task, node Node, ctx templates.ExecutionContext) (bool, error) {
	return MatchWith(t, node, ctx, operators.Default)
}

// MatchWith evaluates with an explicit operator registry.
//
// The whole tree is shape-checked before evaluation, so a malformed node is
// reported no matter where it sits. Short-circuiting can then never hide a
// structural error behind an earlier sibling's result.
func MatchWith(t task.Task, node Node, ctx templates.ExecutionContext, reg *operators.Registry) (bool, error) {
	if err := checkShape(node); err != nil {
		return false, err
	}
	v := &matchVisitor{task: t, ctx: ctx, registry: reg}
	return v.eval(node)
}

// checkShape walks a tree rejecting nodes that are neither a condition nor
// a group.
func checkShape(n Node) error {
	if n == nil {
		return ErrMalformedNode
	}
	g, ok := n.(Group)
	if !ok {
		return nil
	}
	for _, child := range g.Conditions {
		if err := checkShape(child); err != nil {
			return err
		}
	}
	return nil
}

type matchVisitor struct {
	task     task.Task
	ctx      templates.ExecutionContext
	registry *operators.Registry
	value    bool
}

func (v *matchVisitor) eval(n Node) (bool, error) {
	if n == nil {
		return false, ErrMalformedNode
	}
	if err := n.Accept(v); err != nil {
		return false, err
	}
	return v.value, nil
}

func (v *matchVisitor) VisitCondition(c Condition) error {
	fieldType := fields.TypeOf(c.Field)
	taskValue := fields.Value(v.task, c.Field)
	v.value = v.registry.Evaluate(fieldType, c.Operator, c.Value, taskValue, v.ctx)
	return nil
}

func (v *matchVisitor) VisitGroup(g Group) error {
	switch g.Operator {
	// The zero value of Group is an empty conjunction: a view with no
	// filters matches everything through vacuous truth.
	case BoolAnd, "":
		for _, child := range g.Conditions {
			matched, err := v.eval(child)
			if err != nil {
				return err
			}
			if !matched {
				v.value = false
				return nil
			}
		}
		v.value = true
	case BoolOr:
		for _, child := range g.Conditions {
			matched, err := v.eval(child)
			if err != nil {
				return err
			}
			if matched {
				v.value = true
				return nil
			}
		}
		v.value = false
	default:
		// Unknown group operator: one malformed node degrades, the
		// surrounding tree keeps evaluating.
		v.value = false
	}
	return nil
}
