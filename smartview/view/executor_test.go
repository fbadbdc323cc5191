package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/operators"
	"github.com/krew-solutions/smartview-go/smartview/task"
	"github.com/krew-solutions/smartview-go/smartview/templates"
)

var testCtx = templates.ExecutionContext{
	CurrentUserID: "u1",
	Now:           time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
}

func taskIDs(tasks []task.Task) []string {
	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	return ids
}

func TestExecuteConcreteScenario(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Priority: task.PriorityHigh},
		{ID: "2", Priority: task.PriorityLow},
	}
	cfg := Config{
		Filters: filter.And(filter.Where(fields.FieldPriority, operators.OpEq, "high")),
	}

	result, err := Execute(tasks, cfg, testCtx, Page{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, []string{"1"}, taskIDs(result.Groups[0].Tasks))
}

func TestExecuteEmptyConfigMatchesEverything(t *testing.T) {
	tasks := []task.Task{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	result, err := Execute(tasks, Config{}, testCtx, Page{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, []string{"1", "2", "3"}, taskIDs(result.Groups[0].Tasks))
}

func TestExecuteSortAscending(t *testing.T) {
	tasks := []task.Task{
		{ID: "b", SequenceNumber: 20},
		{ID: "a", SequenceNumber: 10},
		{ID: "c", SequenceNumber: 30},
	}
	cfg := Config{SortBy: fields.FieldSequenceNumber, SortOrder: SortAsc}

	result, err := Execute(tasks, cfg, testCtx, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, taskIDs(result.Groups[0].Tasks))
}

func TestExecuteSortDescendingMissingValuesLast(t *testing.T) {
	due1 := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	due2 := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	tasks := []task.Task{
		{ID: "nodate1"},
		{ID: "early", DueDate: &due1},
		{ID: "nodate2"},
		{ID: "late", DueDate: &due2},
	}
	cfg := Config{SortBy: fields.FieldDueDate, SortOrder: SortDesc}

	result, err := Execute(tasks, cfg, testCtx, Page{})
	require.NoError(t, err)

	// Descending, but tasks without a due date still sort last, keeping
	// their original relative order.
	assert.Equal(t, []string{"late", "early", "nodate1", "nodate2"}, taskIDs(result.Groups[0].Tasks))
}

func TestExecuteSortIsStable(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Priority: task.PriorityHigh},
		{ID: "2", Priority: task.PriorityHigh},
		{ID: "3", Priority: task.PriorityHigh},
	}
	cfg := Config{SortBy: fields.FieldPriority, SortOrder: SortAsc}

	result, err := Execute(tasks, cfg, testCtx, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, taskIDs(result.Groups[0].Tasks))
}

func TestExecuteSortByPriorityUsesSeverityOrder(t *testing.T) {
	tasks := []task.Task{
		{ID: "low", Priority: task.PriorityLow},
		{ID: "urgent", Priority: task.PriorityUrgent},
		{ID: "medium", Priority: task.PriorityMedium},
		{ID: "high", Priority: task.PriorityHigh},
	}
	cfg := Config{SortBy: fields.FieldPriority, SortOrder: SortAsc}

	result, err := Execute(tasks, cfg, testCtx, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent", "high", "medium", "low"}, taskIDs(result.Groups[0].Tasks))
}

func TestExecutePagination(t *testing.T) {
	tasks := make([]task.Task, 10)
	for i := range tasks {
		tasks[i] = task.Task{ID: fmt.Sprintf("t%d", i), SequenceNumber: int64(i)}
	}
	cfg := Config{SortBy: fields.FieldSequenceNumber}

	// Page 2 of size 3 is exactly indices [3, 6).
	result, err := Execute(tasks, cfg, testCtx, Page{Number: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, []string{"t3", "t4", "t5"}, taskIDs(result.Groups[0].Tasks))

	// Last partial page.
	result, err = Execute(tasks, cfg, testCtx, Page{Number: 4, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"t9"}, taskIDs(result.Groups[0].Tasks))

	// Beyond the end.
	result, err = Execute(tasks, cfg, testCtx, Page{Number: 5, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, result.Groups)
	assert.Equal(t, 10, result.Total)
}

func TestExecuteRejectsNegativePagination(t *testing.T) {
	_, err := Execute(nil, Config{}, testCtx, Page{Number: -1})
	assert.Error(t, err)
	_, err = Execute(nil, Config{}, testCtx, Page{Limit: -1})
	assert.Error(t, err)
}

func TestExecutePropagatesMalformedTree(t *testing.T) {
	cfg := Config{Filters: filter.And(nil)}
	_, err := Execute([]task.Task{{ID: "1"}}, cfg, testCtx, Page{})
	assert.ErrorIs(t, err, filter.ErrMalformedNode)
}

func TestExecuteIsDeterministic(t *testing.T) {
	tasks := make([]task.Task, 50)
	for i := range tasks {
		due := testCtx.Now.AddDate(0, 0, i%7-3)
		tasks[i] = task.Task{
			ID:             fmt.Sprintf("t%02d", i),
			SequenceNumber: int64(i),
			Title:          faker.Lorem().Sentence(3),
			Priority:       []string{task.PriorityUrgent, task.PriorityHigh, task.PriorityMedium, task.PriorityLow}[i%4],
			StateCategory:  task.StateCategories[i%3],
			AssigneeID:     []string{"u1", "u2", ""}[i%3],
			LabelIDs:       [][]string{{"bug"}, {"bug", "infra"}, nil}[i%3],
			DueDate:        &due,
		}
	}
	cfg := Config{
		Filters: filter.And(
			filter.Where(fields.FieldDueDate, operators.OpLte, "{{now + 7d}}"),
		),
		GroupBy:   fields.FieldStateCategory,
		SortBy:    fields.FieldPriority,
		SortOrder: SortAsc,
	}

	first, err := Execute(tasks, cfg, testCtx, Page{})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Execute(tasks, cfg, testCtx, Page{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExecuteDoesNotMutateInput(t *testing.T) {
	tasks := []task.Task{
		{ID: "b", SequenceNumber: 2},
		{ID: "a", SequenceNumber: 1},
	}
	cfg := Config{SortBy: fields.FieldSequenceNumber}

	_, err := Execute(tasks, cfg, testCtx, Page{})
	require.NoError(t, err)

	assert.Equal(t, "b", tasks[0].ID, "input order must be preserved")
	assert.Equal(t, "a", tasks[1].ID)
}
