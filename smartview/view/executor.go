package view

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/krew-solutions/smartview-go/smartview/fields"
	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/task"
	"github.com/krew-solutions/smartview-go/smartview/templates"
)

// Page selects a window of the filtered, sorted result. The zero value
// returns everything. Number is 1-based.
type Page struct {
	Number int
	Limit  int
}

// Result is a full view execution: ordered group buckets plus the count of
// distinct matched tasks before pagination. When a multi-valued dimension
// fans a task into several buckets, the buckets can sum to more than Total;
// Total always counts tasks, not bucket assignments.
type Result struct {
	Groups []Bucket `json:"groups"`
	Total  int      `json:"total"`
}

// Bucket is an ordered collection of tasks sharing a group-by key. With a
// secondary grouping configured, Tasks is empty and Groups holds the nested
// buckets instead.
type Bucket struct {
	Key    string      `json:"key"`
	Tasks  []task.Task `json:"tasks,omitempty"`
	Groups []Bucket    `json:"groups,omitempty"`
}

// UngroupedKey marks the bucket holding tasks without a value for the group
// dimension. It is always ordered last.
const UngroupedKey = ""

// Execute runs the full pipeline: filter via the tree evaluator, stable
// sort, paginate, group. Given identical inputs (including the same
// context instant) the result is deterministic, independent of map
// iteration order.
//
// Execute allocates fresh outputs and never mutates its inputs, so it is
// safe to call concurrently for any number of simultaneous executions.
func Execute(tasks []task.Task, cfg Config, ctx templates.ExecutionContext, page Page) (Result, error) {
	if page.Number < 0 || page.Limit < 0 {
		return Result{}, errors.New("view: page and limit must be non-negative")
	}

	matched := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		ok, err := filter.Match(t, cfg.Filters, ctx)
		if err != nil {
			return Result{}, err
		}
		if ok {
			matched = append(matched, t)
		}
	}
	total := len(matched)

	sortTasks(matched, cfg.SortBy, cfg.SortOrder)
	windowed := paginate(matched, page)

	return Result{
		Groups: group(windowed, cfg.GroupBy, cfg.SecondaryGroupBy),
		Total:  total,
	}, nil
}

// sortTasks stable-sorts by the given field. Ties keep original input
// order. Tasks missing a value for the sort field always sort last,
// regardless of direction.
func sortTasks(tasks []task.Task, sortBy string, order SortOrder) {
	if sortBy == "" {
		return
	}
	fieldType := fields.TypeOf(sortBy)
	descending := order == SortDesc

	sort.SliceStable(tasks, func(i, j int) bool {
		a := fields.Value(tasks[i], sortBy)
		b := fields.Value(tasks[j], sortBy)
		if (a == nil) != (b == nil) {
			return b == nil
		}
		if a == nil {
			return false
		}
		c := compareValues(fieldType, a, b)
		if descending {
			c = -c
		}
		return c < 0
	})
}

// compareValues orders two present field values of the same type.
func compareValues(t fields.FieldType, a, b any) int {
	switch t {
	case fields.TypeNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case fields.TypeDate:
		ta, okA := a.(time.Time)
		tb, okB := b.(time.Time)
		if !okA || !okB {
			return 0
		}
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		}
		return 0
	case fields.TypePriority:
		return priorityRank(toText(a)) - priorityRank(toText(b))
	case fields.TypeStateCategory:
		return stateRank(toText(a)) - stateRank(toText(b))
	}
	return strings.Compare(strings.ToLower(toText(a)), strings.ToLower(toText(b)))
}

// priorityRank orders urgent before high before medium before low. Unknown
// levels sort after known ones.
func priorityRank(p string) int {
	switch p {
	case task.PriorityUrgent:
		return 0
	case task.PriorityHigh:
		return 1
	case task.PriorityMedium:
		return 2
	case task.PriorityLow:
		return 3
	}
	return 4
}

// stateRank follows the natural workflow order backlog, in_progress, done.
func stateRank(s string) int {
	for i, cat := range task.StateCategories {
		if string(cat) == s {
			return i
		}
	}
	return len(task.StateCategories)
}

func paginate(tasks []task.Task, page Page) []task.Task {
	if page.Limit == 0 {
		return tasks
	}
	number := page.Number
	if number == 0 {
		number = 1
	}
	start := (number - 1) * page.Limit
	if start >= len(tasks) {
		return nil
	}
	end := start + page.Limit
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[start:end]
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []string:
		joined := make([]string, len(s))
		copy(joined, s)
		sort.Strings(joined)
		return strings.Join(joined, ",")
	case time.Time:
		return s.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
