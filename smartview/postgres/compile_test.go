package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/operators"
)

func TestCompileFilterSimple(t *testing.T) {
	compiled, err := CompileFilter(filter.And(
		filter.Where(fields.FieldPriority, operators.OpEq, "high"),
	))
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}

	expected := "((priority <> '' AND priority = $1))"
	if compiled.SQL != expected {
		t.Errorf("expected SQL %q, got %q", expected, compiled.SQL)
	}
	if len(compiled.Params) != 1 || compiled.Params[0] != "high" {
		t.Errorf("expected params [high], got %v", compiled.Params)
	}
}

func TestCompileFilterNested(t *testing.T) {
	compiled, err := CompileFilter(filter.And(
		filter.Where(fields.FieldStateCategory, operators.OpNeq, "done"),
		filter.Or(
			filter.Where(fields.FieldSequenceNumber, operators.OpGte, 100),
			filter.Where(fields.FieldDueDate, operators.OpIsNull, nil),
		),
	))
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}

	if !strings.Contains(compiled.SQL, " AND ") {
		t.Errorf("expected SQL to contain AND, got: %s", compiled.SQL)
	}
	if !strings.Contains(compiled.SQL, " OR ") {
		t.Errorf("expected SQL to contain OR, got: %s", compiled.SQL)
	}
	if !strings.Contains(compiled.SQL, "due_date IS NULL") {
		t.Errorf("expected due_date IS NULL, got: %s", compiled.SQL)
	}
	if len(compiled.Params) != 2 {
		t.Errorf("expected 2 params, got %v", compiled.Params)
	}
}

func TestCompileFilterEmptyGroups(t *testing.T) {
	compiled, err := CompileFilter(filter.And())
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}
	if compiled.SQL != "TRUE" {
		t.Errorf("empty AND should compile to TRUE, got %q", compiled.SQL)
	}

	compiled, err = CompileFilter(filter.Or())
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}
	if compiled.SQL != "FALSE" {
		t.Errorf("empty OR should compile to FALSE, got %q", compiled.SQL)
	}
}

func TestCompileFilterMembership(t *testing.T) {
	compiled, err := CompileFilter(filter.And(
		filter.Where(fields.FieldAssigneeID, operators.OpIn, []any{"u1", "u2"}),
	))
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}
	if !strings.Contains(compiled.SQL, "assignee_id = ANY($1)") {
		t.Errorf("expected ANY membership, got: %s", compiled.SQL)
	}
	list, ok := compiled.Params[0].([]string)
	if !ok || len(list) != 2 {
		t.Errorf("expected []string params, got %#v", compiled.Params[0])
	}
}

func TestCompileFilterContainsEscapesPattern(t *testing.T) {
	compiled, err := CompileFilter(filter.And(
		filter.Where(fields.FieldTitle, operators.OpContains, "50%_done"),
	))
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}
	if got := compiled.Params[0]; got != `%50\%\_done%` {
		t.Errorf("expected escaped ILIKE pattern, got %q", got)
	}
}

func TestCompileFilterRejectsTemplateTokens(t *testing.T) {
	_, err := CompileFilter(filter.And(
		filter.Where(fields.FieldAssigneeID, operators.OpEq, "{{current_user}}"),
	))
	if !errors.Is(err, ErrNotCompilable) {
		t.Fatalf("expected ErrNotCompilable, got %v", err)
	}

	_, err = CompileFilter(filter.And(
		filter.Where(fields.FieldDueDate, operators.OpLte, "{{now + 7d}}"),
	))
	if !errors.Is(err, ErrNotCompilable) {
		t.Fatalf("expected ErrNotCompilable, got %v", err)
	}
}

func TestCompileFilterRejectsLabelConditions(t *testing.T) {
	_, err := CompileFilter(filter.And(
		filter.Where(fields.FieldLabelIDs, operators.OpEq, "bug"),
	))
	if !errors.Is(err, ErrNotCompilable) {
		t.Fatalf("expected ErrNotCompilable, got %v", err)
	}
}

func TestCompileFilterRejectsUnknownField(t *testing.T) {
	_, err := CompileFilter(filter.And(
		filter.Where("mystery", operators.OpEq, "x"),
	))
	if !errors.Is(err, ErrNotCompilable) {
		t.Fatalf("expected ErrNotCompilable, got %v", err)
	}
}

func TestShiftParams(t *testing.T) {
	compiled := CompiledFilter{
		SQL:    "(a = $1 AND b = $2)",
		Params: []any{"x", "y"},
	}
	shifted := compiled.ShiftParams(3)
	if shifted.SQL != "(a = $4 AND b = $5)" {
		t.Errorf("unexpected shifted SQL: %s", shifted.SQL)
	}

	unshifted := compiled.ShiftParams(0)
	if unshifted.SQL != compiled.SQL {
		t.Errorf("shift by zero must not change SQL")
	}
}

func TestShiftParamsTenOrMorePlaceholders(t *testing.T) {
	// Two-digit placeholders must shift exactly once: renumbering $1
	// must not touch the digits of an already-shifted $10 or $11.
	nodes := make([]filter.Node, 11)
	for i := range nodes {
		nodes[i] = filter.Where(fields.FieldTitle, operators.OpEq, fmt.Sprintf("t%d", i))
	}
	compiled, err := CompileFilter(filter.And(nodes...))
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}

	shifted := compiled.ShiftParams(1)
	for i := 2; i <= 12; i++ {
		want := fmt.Sprintf("= $%d)", i)
		if !strings.Contains(shifted.SQL, want) {
			t.Errorf("expected placeholder %q in shifted SQL: %s", want, shifted.SQL)
		}
	}
	for _, gone := range []string{"$1)", "$13", "$20", "$21"} {
		if strings.Contains(shifted.SQL, gone) {
			t.Errorf("unexpected %q in shifted SQL: %s", gone, shifted.SQL)
		}
	}
}
