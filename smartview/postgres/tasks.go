package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/smartview-go/smartview/task"
)

// TaskStore loads the task read model for one workspace. The engine only
// reads tasks; writes belong to the tracker's command side and are not part
// of this module.
type TaskStore struct {
	pool *pgxpool.Pool
}

func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{pool: pool}
}

const taskColumns = `id, sequence_number, title, description, state_category,
	priority, assignee_id, label_ids, project_id, due_date, created_at, completed_at`

// List loads a workspace's tasks in sequence order. When a compiled filter
// is supplied, its conditions are pushed down into the query so the
// database pre-filters; the caller still runs the engine on the result for
// template-token and label conditions that do not compile.
func (s *TaskStore) List(ctx context.Context, workspaceID string, pre *CompiledFilter) ([]task.Task, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(taskColumns)
	sb.WriteString(" FROM tasks WHERE workspace_id = $1")

	args := []any{workspaceID}
	if pre != nil && pre.SQL != "" {
		shifted := pre.ShiftParams(len(args))
		sb.WriteString(" AND ")
		sb.WriteString(shifted.SQL)
		args = append(args, shifted.Params...)
	}
	sb.WriteString(" ORDER BY sequence_number")

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		var (
			t     task.Task
			state string
		)
		err := rows.Scan(&t.ID, &t.SequenceNumber, &t.Title, &t.Description,
			&state, &t.Priority, &t.AssigneeID, &t.LabelIDs,
			&t.ProjectID, &t.DueDate, &t.CreatedAt, &t.CompletedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scan task")
		}
		t.StateCategory = task.StateCategory(state)
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "list tasks")
}
