// Package postgres adapts the smart view engine to a PostgreSQL-backed
// deployment: a store for persisted view configurations, a task read-model
// loader, and a compiler that pushes static filter conditions down into SQL.
package postgres

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/operators"
	"github.com/krew-solutions/smartview-go/smartview/templates"
)

// ErrNotCompilable marks a filter tree that cannot be expressed as a SQL
// WHERE fragment: template tokens need per-execution resolution and
// multi-valued label conditions need the in-memory evaluator. Callers fall
// back to loading the unfiltered collection and evaluating in memory; the
// compiler reports the limit instead of producing wrong SQL.
var ErrNotCompilable = errors.New("postgres: filter does not compile to SQL")

// CompiledFilter is a parameterized WHERE fragment. Placeholders are
// numbered from $1; ShiftParams renumbers them when the surrounding query
// already binds parameters.
type CompiledFilter struct {
	SQL    string
	Params []any
}

// placeholderPattern matches a whole $N placeholder, so renumbering never
// rewrites the digits of an already-shifted placeholder.
var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// ShiftParams renumbers the fragment's placeholders to start after n
// already-bound parameters.
func (c CompiledFilter) ShiftParams(n int) CompiledFilter {
	if n == 0 {
		return c
	}
	sql := placeholderPattern.ReplaceAllStringFunc(c.SQL, func(m string) string {
		i, err := strconv.Atoi(m[1:])
		if err != nil {
			return m
		}
		return fmt.Sprintf("$%d", i+n)
	})
	return CompiledFilter{SQL: sql, Params: c.Params}
}

// CompileFilter compiles a filter tree into a WHERE fragment. The fragment
// matches exactly the tasks the in-memory evaluator matches for the same
// tree, so pre-filtered rows never need re-checking.
func CompileFilter(g filter.Group) (CompiledFilter, error) {
	v := &sqlVisitor{}
	if err := g.Accept(v); err != nil {
		return CompiledFilter{}, err
	}
	return CompiledFilter{SQL: v.sql.String(), Params: v.params}, nil
}

// columns maps compilable field ids onto task table columns. The label
// field is deliberately missing: label conditions evaluate in memory.
var columns = map[string]string{
	fields.FieldTitle:          "title",
	fields.FieldDescription:    "description",
	fields.FieldStateCategory:  "state_category",
	fields.FieldPriority:       "priority",
	fields.FieldAssigneeID:     "assignee_id",
	fields.FieldProjectID:      "project_id",
	fields.FieldDueDate:        "due_date",
	fields.FieldCreatedAt:      "created_at",
	fields.FieldCompletedAt:    "completed_at",
	fields.FieldSequenceNumber: "sequence_number",
}

// textColumns are stored as text where the engine treats the empty string
// as absent; presence checks must cover both NULL and ''.
var textColumns = map[string]bool{
	fields.FieldTitle:         true,
	fields.FieldDescription:   true,
	fields.FieldStateCategory: true,
	fields.FieldPriority:      true,
	fields.FieldAssigneeID:    true,
	fields.FieldProjectID:     true,
}

type sqlVisitor struct {
	sql    strings.Builder
	params []any
}

func (v *sqlVisitor) bind(value any) string {
	v.params = append(v.params, value)
	return fmt.Sprintf("$%d", len(v.params))
}

func (v *sqlVisitor) VisitGroup(g filter.Group) error {
	if len(g.Conditions) == 0 {
		// Boolean identities, matching the in-memory evaluator.
		if g.Operator == filter.BoolOr {
			v.sql.WriteString("FALSE")
		} else {
			v.sql.WriteString("TRUE")
		}
		return nil
	}

	var joiner string
	switch g.Operator {
	case filter.BoolAnd, "":
		joiner = " AND "
	case filter.BoolOr:
		joiner = " OR "
	default:
		return errors.Wrapf(ErrNotCompilable, "group operator %q", g.Operator)
	}

	v.sql.WriteString("(")
	for i, child := range g.Conditions {
		if child == nil {
			return filter.ErrMalformedNode
		}
		if i > 0 {
			v.sql.WriteString(joiner)
		}
		if err := child.Accept(v); err != nil {
			return err
		}
	}
	v.sql.WriteString(")")
	return nil
}

func (v *sqlVisitor) VisitCondition(c filter.Condition) error {
	column, ok := columns[c.Field]
	if !ok {
		return errors.Wrapf(ErrNotCompilable, "field %q has no column", c.Field)
	}
	if templates.ContainsToken(c.Value) {
		return errors.Wrapf(ErrNotCompilable, "field %q uses a template token", c.Field)
	}

	// The engine treats NULL and '' on text columns uniformly as absent,
	// and absence satisfies only neq, nin and is_null. The compiled SQL
	// mirrors that: positive operators require presence, negative
	// operators are satisfied by absence.
	isText := textColumns[c.Field]

	switch c.Operator {
	case operators.OpEq:
		if isText {
			fmt.Fprintf(&v.sql, "(%s <> '' AND %s = %s)", column, column, v.bind(c.Value))
		} else {
			fmt.Fprintf(&v.sql, "%s = %s", column, v.bind(c.Value))
		}
	case operators.OpNeq:
		if isText {
			fmt.Fprintf(&v.sql, "(%s IS NULL OR %s = '' OR %s <> %s)", column, column, column, v.bind(c.Value))
		} else {
			fmt.Fprintf(&v.sql, "%s IS DISTINCT FROM %s", column, v.bind(c.Value))
		}
	case operators.OpGt:
		fmt.Fprintf(&v.sql, "%s > %s", column, v.bind(c.Value))
	case operators.OpGte:
		fmt.Fprintf(&v.sql, "%s >= %s", column, v.bind(c.Value))
	case operators.OpLt:
		fmt.Fprintf(&v.sql, "%s < %s", column, v.bind(c.Value))
	case operators.OpLte:
		fmt.Fprintf(&v.sql, "%s <= %s", column, v.bind(c.Value))
	case operators.OpIn:
		list, err := stringList(c.Value)
		if err != nil {
			return errors.Wrapf(err, "field %q", c.Field)
		}
		fmt.Fprintf(&v.sql, "(%s <> '' AND %s = ANY(%s))", column, column, v.bind(list))
	case operators.OpNin:
		list, err := stringList(c.Value)
		if err != nil {
			return errors.Wrapf(err, "field %q", c.Field)
		}
		fmt.Fprintf(&v.sql, "(%s IS NULL OR %s = '' OR %s <> ALL(%s))", column, column, column, v.bind(list))
	case operators.OpContains:
		fmt.Fprintf(&v.sql, "(%s <> '' AND %s ILIKE %s)", column, column, v.bind(likePattern(c.Value)))
	case operators.OpNotContains:
		fmt.Fprintf(&v.sql, "(%s <> '' AND %s NOT ILIKE %s)", column, column, v.bind(likePattern(c.Value)))
	case operators.OpIsNull:
		if textColumns[c.Field] {
			fmt.Fprintf(&v.sql, "(%s IS NULL OR %s = '')", column, column)
		} else {
			fmt.Fprintf(&v.sql, "%s IS NULL", column)
		}
	case operators.OpIsNotNull:
		if textColumns[c.Field] {
			fmt.Fprintf(&v.sql, "(%s IS NOT NULL AND %s <> '')", column, column)
		} else {
			fmt.Fprintf(&v.sql, "%s IS NOT NULL", column)
		}
	default:
		return errors.Wrapf(ErrNotCompilable, "operator %q", c.Operator)
	}
	return nil
}

func stringList(value any) ([]string, error) {
	switch list := value.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, len(list))
		for i := range list {
			out[i] = fmt.Sprint(list[i])
		}
		return out, nil
	}
	return nil, errors.Wrap(ErrNotCompilable, "membership value is not an array")
}

func likePattern(value any) string {
	s := fmt.Sprint(value)
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
	return "%" + escaped + "%"
}
