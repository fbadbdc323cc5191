// Package sqlite implements an embedded, file-backed store for tasks and
// smart view configurations.
//
// It backs the MCP server binary, where a single-file SQLite database is
// the whole deployment. Filtering and grouping stay in the engine; this
// store only loads and persists records.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/task"
	"github.com/krew-solutions/smartview-go/smartview/view"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrViewNotFound is returned when a view id does not exist in the
// requesting workspace.
var ErrViewNotFound = fmt.Errorf("sqlite: view not found")

// ErrTaskNotFound is returned when a task id does not exist in the
// requesting workspace.
var ErrTaskNotFound = fmt.Errorf("sqlite: task not found")

// View is a persisted smart view scoped to one workspace.
type View struct {
	ID          string      `json:"id"`
	WorkspaceID string      `json:"workspace_id"`
	Name        string      `json:"name"`
	Config      view.Config `json:"config"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Config holds store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".smartview")}
}

// Store is the embedded task and view store backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store with the given configuration. It creates the data
// directory if needed, opens SQLite with WAL mode, and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("sqlite: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "smartview.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			id              TEXT PRIMARY KEY,
			workspace_id    TEXT    NOT NULL,
			sequence_number INTEGER NOT NULL,
			title           TEXT    NOT NULL,
			description     TEXT    NOT NULL DEFAULT '',
			state_category  TEXT    NOT NULL DEFAULT 'backlog',
			priority        TEXT    NOT NULL DEFAULT '',
			assignee_id     TEXT    NOT NULL DEFAULT '',
			label_ids       TEXT    NOT NULL DEFAULT '[]',
			project_id      TEXT    NOT NULL DEFAULT '',
			due_date        TEXT,
			created_at      TEXT    NOT NULL DEFAULT (datetime('now')),
			completed_at    TEXT,
			UNIQUE (workspace_id, sequence_number)
		);

		CREATE INDEX IF NOT EXISTS tasks_workspace_idx
			ON tasks (workspace_id, sequence_number);

		CREATE TABLE IF NOT EXISTS smart_views (
			id           TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			name         TEXT NOT NULL,
			config       TEXT NOT NULL,
			created_at   TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS smart_views_workspace_idx
			ON smart_views (workspace_id, name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// SaveTask inserts or updates a task. A task without an id is assigned a
// fresh ULID and the workspace's next sequence number.
func (s *Store) SaveTask(ctx context.Context, workspaceID string, t *task.Task) error {
	if workspaceID == "" {
		return fmt.Errorf("sqlite: task workspace id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("sqlite: task title is required")
	}
	if t.ID == "" {
		t.ID = ulid.Make().String()
	}
	if t.SequenceNumber == 0 {
		seq, err := s.nextSequence(ctx, workspaceID)
		if err != nil {
			return err
		}
		t.SequenceNumber = seq
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	labels, err := json.Marshal(t.LabelIDs)
	if err != nil {
		return fmt.Errorf("sqlite: encode labels: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, workspace_id, sequence_number, title, description,
			state_category, priority, assignee_id, label_ids, project_id,
			due_date, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			state_category = excluded.state_category,
			priority = excluded.priority,
			assignee_id = excluded.assignee_id,
			label_ids = excluded.label_ids,
			project_id = excluded.project_id,
			due_date = excluded.due_date,
			completed_at = excluded.completed_at`,
		t.ID, workspaceID, t.SequenceNumber, t.Title, t.Description,
		string(t.StateCategory), t.Priority, t.AssigneeID, string(labels),
		t.ProjectID, timeText(t.DueDate), t.CreatedAt.UTC().Format(time.RFC3339Nano),
		timeText(t.CompletedAt))
	if err != nil {
		return fmt.Errorf("sqlite: save task: %w", err)
	}
	return nil
}

func (s *Store) nextSequence(ctx context.Context, workspaceID string) (int64, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(sequence_number) FROM tasks WHERE workspace_id = ?`,
		workspaceID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("sqlite: next sequence: %w", err)
	}
	return max.Int64 + 1, nil
}

// GetTask loads one task by id within a workspace.
func (s *Store) GetTask(ctx context.Context, workspaceID, id string) (task.Task, error) {
	rows, err := s.db.QueryContext(ctx, taskSelect+` WHERE workspace_id = ? AND id = ?`,
		workspaceID, id)
	if err != nil {
		return task.Task{}, fmt.Errorf("sqlite: get task: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return task.Task{}, fmt.Errorf("sqlite: get task: %w", err)
		}
		return task.Task{}, ErrTaskNotFound
	}
	return scanTask(rows)
}

const taskSelect = `
	SELECT id, sequence_number, title, description, state_category, priority,
		assignee_id, label_ids, project_id, due_date, created_at, completed_at
	FROM tasks`

// ListTasks loads a workspace's tasks in sequence order.
func (s *Store) ListTasks(ctx context.Context, workspaceID string) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		taskSelect+` WHERE workspace_id = ? ORDER BY sequence_number`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tasks: %w", err)
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list tasks: %w", err)
	}
	return out, nil
}

// DeleteTask removes a task within a workspace.
func (s *Store) DeleteTask(ctx context.Context, workspaceID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete task: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func scanTask(rows *sql.Rows) (task.Task, error) {
	var (
		t         task.Task
		state     string
		labels    string
		due       sql.NullString
		created   string
		completed sql.NullString
	)
	err := rows.Scan(&t.ID, &t.SequenceNumber, &t.Title, &t.Description,
		&state, &t.Priority, &t.AssigneeID, &labels, &t.ProjectID,
		&due, &created, &completed)
	if err != nil {
		return task.Task{}, fmt.Errorf("sqlite: scan task: %w", err)
	}
	t.StateCategory = task.StateCategory(state)
	if err := json.Unmarshal([]byte(labels), &t.LabelIDs); err != nil {
		return task.Task{}, fmt.Errorf("sqlite: decode labels: %w", err)
	}
	if t.DueDate, err = parseNullTime(due); err != nil {
		return task.Task{}, fmt.Errorf("sqlite: decode due date: %w", err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return task.Task{}, fmt.Errorf("sqlite: decode created at: %w", err)
	}
	if t.CompletedAt, err = parseNullTime(completed); err != nil {
		return task.Task{}, fmt.Errorf("sqlite: decode completed at: %w", err)
	}
	return t, nil
}

// SaveView validates and upserts a view. A view without an id is assigned
// a fresh ULID.
func (s *Store) SaveView(ctx context.Context, v *View) error {
	if v.WorkspaceID == "" {
		return fmt.Errorf("sqlite: view workspace id is required")
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("sqlite: view name is required")
	}
	if err := v.Config.Validate(); err != nil {
		return fmt.Errorf("sqlite: invalid view configuration: %w", err)
	}
	if v.ID == "" {
		v.ID = ulid.Make().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.UpdatedAt = time.Now().UTC()

	config, err := json.Marshal(storedConfig{
		Filters:          v.Config.Filters,
		GroupBy:          v.Config.GroupBy,
		SecondaryGroupBy: v.Config.SecondaryGroupBy,
		SortBy:           v.Config.SortBy,
		SortOrder:        string(v.Config.SortOrder),
	})
	if err != nil {
		return fmt.Errorf("sqlite: encode view config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO smart_views (id, workspace_id, name, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			config = excluded.config,
			updated_at = excluded.updated_at`,
		v.ID, v.WorkspaceID, v.Name, string(config),
		v.CreatedAt.UTC().Format(time.RFC3339Nano),
		v.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: save view: %w", err)
	}
	return nil
}

// storedConfig is the JSON shape a view's configuration is persisted as.
// Filters use the filter package's tree encoding.
type storedConfig struct {
	Filters          filter.Group `json:"filters"`
	GroupBy          string       `json:"group_by,omitempty"`
	SecondaryGroupBy string       `json:"secondary_group_by,omitempty"`
	SortBy           string       `json:"sort_by,omitempty"`
	SortOrder        string       `json:"sort_order,omitempty"`
}

// storedConfigProbe defers filter decoding so the tree codec applies.
type storedConfigProbe struct {
	Filters          json.RawMessage `json:"filters"`
	GroupBy          string          `json:"group_by"`
	SecondaryGroupBy string          `json:"secondary_group_by"`
	SortBy           string          `json:"sort_by"`
	SortOrder        string          `json:"sort_order"`
}

// GetView loads one view by id within a workspace.
func (s *Store) GetView(ctx context.Context, workspaceID, id string) (View, error) {
	rows, err := s.db.QueryContext(ctx, viewSelect+` WHERE workspace_id = ? AND id = ?`,
		workspaceID, id)
	if err != nil {
		return View{}, fmt.Errorf("sqlite: get view: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return View{}, fmt.Errorf("sqlite: get view: %w", err)
		}
		return View{}, ErrViewNotFound
	}
	return scanView(rows)
}

const viewSelect = `
	SELECT id, workspace_id, name, config, created_at, updated_at
	FROM smart_views`

// ListViews returns a workspace's views ordered by name.
func (s *Store) ListViews(ctx context.Context, workspaceID string) ([]View, error) {
	rows, err := s.db.QueryContext(ctx,
		viewSelect+` WHERE workspace_id = ? ORDER BY name, id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list views: %w", err)
	}
	defer rows.Close()

	var out []View
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list views: %w", err)
	}
	return out, nil
}

// DeleteView removes a view within a workspace.
func (s *Store) DeleteView(ctx context.Context, workspaceID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM smart_views WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete view: %w", err)
	}
	if n == 0 {
		return ErrViewNotFound
	}
	return nil
}

func scanView(rows *sql.Rows) (View, error) {
	var (
		v       View
		config  string
		created string
		updated string
	)
	if err := rows.Scan(&v.ID, &v.WorkspaceID, &v.Name, &config, &created, &updated); err != nil {
		return View{}, fmt.Errorf("sqlite: scan view: %w", err)
	}

	var probe storedConfigProbe
	if err := json.Unmarshal([]byte(config), &probe); err != nil {
		return View{}, fmt.Errorf("sqlite: decode view config: %w", err)
	}
	v.Config.GroupBy = probe.GroupBy
	v.Config.SecondaryGroupBy = probe.SecondaryGroupBy
	v.Config.SortBy = probe.SortBy
	v.Config.SortOrder = view.SortOrder(probe.SortOrder)
	if len(probe.Filters) > 0 {
		filters, err := filter.DecodeGroup(probe.Filters)
		if err != nil {
			return View{}, fmt.Errorf("sqlite: decode view filters: %w", err)
		}
		v.Config.Filters = filters
	}

	var err error
	if v.CreatedAt, err = parseTime(created); err != nil {
		return View{}, fmt.Errorf("sqlite: decode created at: %w", err)
	}
	if v.UpdatedAt, err = parseTime(updated); err != nil {
		return View{}, fmt.Errorf("sqlite: decode updated at: %w", err)
	}
	return v, nil
}

func timeText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// datetime('now') defaults use SQLite's own format.
	return time.Parse("2006-01-02 15:04:05", s)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
