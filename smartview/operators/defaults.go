package operators

import (
	"fmt"
	"strings"
	"time"

	"github.com/krew-solutions/smartview-go/smartview/fields"
)

// Default is the registry the filter evaluator uses. It covers every
// (field type, operator) pair the field registry declares legal.
var Default = NewDefaultRegistry()

// NewDefaultRegistry builds a registry with the standard operator semantics
// for all field types.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()

	registerText(reg)
	registerNumber(reg)
	registerDate(reg)

	// Single-valued identity types share exact-match semantics.
	for _, t := range []fields.FieldType{
		fields.TypePriority,
		fields.TypeStateCategory,
		fields.TypeUser,
		fields.TypeProject,
	} {
		registerIdentity(reg, t)
	}

	registerLabel(reg)

	return reg
}

func registerText(reg *Registry) {
	reg.Register(fields.TypeText, OpEq, func(tv, cv any) bool {
		return stringify(tv) == stringify(cv)
	})
	reg.Register(fields.TypeText, OpNeq, func(tv, cv any) bool {
		return stringify(tv) != stringify(cv)
	})
	reg.Register(fields.TypeText, OpContains, func(tv, cv any) bool {
		return strings.Contains(strings.ToLower(stringify(tv)), strings.ToLower(stringify(cv)))
	})
	reg.Register(fields.TypeText, OpNotContains, func(tv, cv any) bool {
		return !strings.Contains(strings.ToLower(stringify(tv)), strings.ToLower(stringify(cv)))
	})
}

func registerNumber(reg *Registry) {
	cmp := func(decide func(a, b float64) bool) EvalFunc {
		return func(tv, cv any) bool {
			a, okA := asFloat(tv)
			b, okB := asFloat(cv)
			if !okA || !okB {
				return false
			}
			return decide(a, b)
		}
	}
	reg.Register(fields.TypeNumber, OpEq, cmp(func(a, b float64) bool { return a == b }))
	reg.Register(fields.TypeNumber, OpNeq, cmp(func(a, b float64) bool { return a != b }))
	reg.Register(fields.TypeNumber, OpGt, cmp(func(a, b float64) bool { return a > b }))
	reg.Register(fields.TypeNumber, OpGte, cmp(func(a, b float64) bool { return a >= b }))
	reg.Register(fields.TypeNumber, OpLt, cmp(func(a, b float64) bool { return a < b }))
	reg.Register(fields.TypeNumber, OpLte, cmp(func(a, b float64) bool { return a <= b }))
}

func registerDate(reg *Registry) {
	cmp := func(decide func(a, b time.Time) bool) EvalFunc {
		return func(tv, cv any) bool {
			a, okA := asTime(tv)
			b, okB := asTime(cv)
			if !okA || !okB {
				return false
			}
			return decide(a, b)
		}
	}
	reg.Register(fields.TypeDate, OpEq, cmp(func(a, b time.Time) bool { return a.Equal(b) }))
	reg.Register(fields.TypeDate, OpGt, cmp(func(a, b time.Time) bool { return a.After(b) }))
	reg.Register(fields.TypeDate, OpGte, cmp(func(a, b time.Time) bool { return !a.Before(b) }))
	reg.Register(fields.TypeDate, OpLt, cmp(func(a, b time.Time) bool { return a.Before(b) }))
	reg.Register(fields.TypeDate, OpLte, cmp(func(a, b time.Time) bool { return !a.After(b) }))
}

// registerIdentity covers single-valued identifier-like types: exact string
// equality plus array membership.
func registerIdentity(reg *Registry, t fields.FieldType) {
	reg.Register(t, OpEq, func(tv, cv any) bool {
		return stringify(tv) == stringify(cv)
	})
	reg.Register(t, OpNeq, func(tv, cv any) bool {
		return stringify(tv) != stringify(cv)
	})
	reg.Register(t, OpIn, func(tv, cv any) bool {
		return memberOf(stringify(tv), cv)
	})
	reg.Register(t, OpNin, func(tv, cv any) bool {
		list, ok := asList(cv)
		if !ok {
			return false
		}
		return !memberOfList(stringify(tv), list)
	})
}

// registerLabel covers the multi-valued label type: a condition matches when
// any of the task's labels satisfies it (neq/nin require none to).
func registerLabel(reg *Registry) {
	reg.Register(fields.TypeLabel, OpEq, func(tv, cv any) bool {
		want := stringify(cv)
		for _, have := range stringifyAll(tv) {
			if have == want {
				return true
			}
		}
		return false
	})
	reg.Register(fields.TypeLabel, OpNeq, func(tv, cv any) bool {
		want := stringify(cv)
		for _, have := range stringifyAll(tv) {
			if have == want {
				return false
			}
		}
		return true
	})
	reg.Register(fields.TypeLabel, OpIn, func(tv, cv any) bool {
		list, ok := asList(cv)
		if !ok {
			return false
		}
		for _, have := range stringifyAll(tv) {
			if memberOfList(have, list) {
				return true
			}
		}
		return false
	})
	reg.Register(fields.TypeLabel, OpNin, func(tv, cv any) bool {
		list, ok := asList(cv)
		if !ok {
			return false
		}
		for _, have := range stringifyAll(tv) {
			if memberOfList(have, list) {
				return false
			}
		}
		return true
	})
}

// ─── Coercion helpers ────────────────────────────────────────────────────────

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func stringifyAll(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, len(vals))
		for i := range vals {
			out[i] = stringify(vals[i])
		}
		return out
	}
	return []string{stringify(v)}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// asTime accepts time values directly and the two string encodings stored
// view configs use: RFC 3339 and plain dates.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// asList normalizes a resolved condition value into a membership list.
// Non-array values report !ok: a shape mismatch degrades the condition to
// false instead of guessing.
func asList(v any) ([]any, bool) {
	switch vals := v.(type) {
	case []any:
		return vals, true
	case []string:
		out := make([]any, len(vals))
		for i := range vals {
			out[i] = vals[i]
		}
		return out, true
	}
	return nil, false
}

func memberOf(want string, cv any) bool {
	list, ok := asList(cv)
	if !ok {
		return false
	}
	return memberOfList(want, list)
}

func memberOfList(want string, list []any) bool {
	for _, item := range list {
		if stringify(item) == want {
			return true
		}
	}
	return false
}
