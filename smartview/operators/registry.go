package operators

import (
	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/templates"
)

// EvalFunc decides whether a task's extracted value matches a resolved
// condition value. It is only invoked when the task value is present and the
// condition value resolved to a real value; presence and fail-closed rules
// are handled by the registry before dispatch.
type EvalFunc func(taskValue, conditionValue any) bool

type evalKey struct {
	fieldType fields.FieldType
	op        Operator
}

// Registry maps (field type, operator) pairs to evaluation funcs.
type Registry struct {
	evals map[evalKey]EvalFunc
}

func NewRegistry() *Registry {
	return &Registry{evals: make(map[evalKey]EvalFunc)}
}

// Register binds an evaluation func to a (field type, operator) pair.
func (r *Registry) Register(t fields.FieldType, op Operator, fn EvalFunc) {
	r.evals[evalKey{fieldType: t, op: op}] = fn
}

// Evaluate applies one condition operator to a task's extracted value.
//
// Semantics shared across all field types:
//   - is_null / is_not_null treat nil, empty string and empty array
//     uniformly as "absent" and never consult the condition value.
//   - A condition value that resolves to the no-value sentinel never
//     matches (fail closed).
//   - An absent task value satisfies neq and nin, and never satisfies
//     eq, in, ordering operators or contains.
//   - An unknown or type-mismatched operator evaluates to false rather
//     than aborting the surrounding filter tree.
func (r *Registry) Evaluate(t fields.FieldType, op Operator, conditionValue, taskValue any, ctx templates.ExecutionContext) bool {
	switch op {
	case OpIsNull:
		return isAbsent(taskValue)
	case OpIsNotNull:
		return !isAbsent(taskValue)
	}

	resolved := templates.Resolve(conditionValue, ctx)
	if containsNoValue(resolved) {
		return false
	}

	if isAbsent(taskValue) {
		return op == OpNeq || op == OpNin
	}

	fn, ok := r.evals[evalKey{fieldType: t, op: op}]
	if !ok {
		return false
	}
	return fn(taskValue, resolved)
}

// containsNoValue reports whether a resolved condition value is the
// no-value sentinel or an array holding one. A single unresolvable element
// fails the whole condition: a nin list with a dangling {{current_user}}
// must not silently match every task.
func containsNoValue(v any) bool {
	switch rv := v.(type) {
	case templates.NoValue:
		return true
	case []any:
		for _, item := range rv {
			if _, noValue := item.(templates.NoValue); noValue {
				return true
			}
		}
	}
	return false
}

// isAbsent reports whether a task value counts as "no value".
func isAbsent(v any) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case string:
		return tv == ""
	case []string:
		return len(tv) == 0
	case []any:
		return len(tv) == 0
	}
	return false
}
