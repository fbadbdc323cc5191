package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/view"
)

// ErrViewNotFound is returned when a view id does not exist in the
// requesting workspace.
var ErrViewNotFound = errors.New("postgres: view not found")

// ViewRecord is a persisted smart view scoped to one workspace.
type ViewRecord struct {
	ID          uuid.UUID
	WorkspaceID string
	Name        string
	Config      view.Config
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ViewStore persists smart view configurations in PostgreSQL.
type ViewStore struct {
	pool *pgxpool.Pool
}

func NewViewStore(pool *pgxpool.Pool) *ViewStore {
	return &ViewStore{pool: pool}
}

// viewSchema creates the backing table. Filters are stored as the JSON
// encoding the filter package defines, so the same stored form round-trips
// through every deployment flavor.
const viewSchema = `
CREATE TABLE IF NOT EXISTS smart_views (
	id                 uuid PRIMARY KEY,
	workspace_id       text NOT NULL,
	name               text NOT NULL,
	filters            jsonb NOT NULL,
	group_by           text NOT NULL DEFAULT '',
	secondary_group_by text NOT NULL DEFAULT '',
	sort_by            text NOT NULL DEFAULT '',
	sort_order         text NOT NULL DEFAULT '',
	created_at         timestamptz NOT NULL DEFAULT now(),
	updated_at         timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS smart_views_workspace_idx ON smart_views (workspace_id, name);
`

// EnsureSchema creates the smart_views table if it does not exist.
func (s *ViewStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, viewSchema); err != nil {
		return errors.Wrap(err, "ensure smart_views schema")
	}
	return nil
}

// Save validates and upserts a view. A zero ID is assigned a fresh one.
func (s *ViewStore) Save(ctx context.Context, rec *ViewRecord) error {
	if rec.WorkspaceID == "" {
		return errors.New("postgres: view workspace id is required")
	}
	if rec.Name == "" {
		return errors.New("postgres: view name is required")
	}
	if err := rec.Config.Validate(); err != nil {
		return errors.Wrap(err, "invalid view configuration")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	filters, err := json.Marshal(rec.Config.Filters)
	if err != nil {
		return errors.Wrap(err, "encode filters")
	}

	const q = `
INSERT INTO smart_views (id, workspace_id, name, filters, group_by, secondary_group_by, sort_by, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	filters = EXCLUDED.filters,
	group_by = EXCLUDED.group_by,
	secondary_group_by = EXCLUDED.secondary_group_by,
	sort_by = EXCLUDED.sort_by,
	sort_order = EXCLUDED.sort_order,
	updated_at = now()`

	_, err = s.pool.Exec(ctx, q,
		rec.ID, rec.WorkspaceID, rec.Name, filters,
		rec.Config.GroupBy, rec.Config.SecondaryGroupBy,
		rec.Config.SortBy, string(rec.Config.SortOrder))
	return errors.Wrap(err, "save view")
}

// Get loads one view by id within a workspace.
func (s *ViewStore) Get(ctx context.Context, workspaceID string, id uuid.UUID) (ViewRecord, error) {
	const q = `
SELECT id, workspace_id, name, filters, group_by, secondary_group_by, sort_by, sort_order, created_at, updated_at
FROM smart_views
WHERE workspace_id = $1 AND id = $2`

	rec, err := scanView(s.pool.QueryRow(ctx, q, workspaceID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ViewRecord{}, ErrViewNotFound
	}
	if err != nil {
		return ViewRecord{}, errors.Wrap(err, "get view")
	}
	return rec, nil
}

// List returns a workspace's views ordered by name.
func (s *ViewStore) List(ctx context.Context, workspaceID string) ([]ViewRecord, error) {
	const q = `
SELECT id, workspace_id, name, filters, group_by, secondary_group_by, sort_by, sort_order, created_at, updated_at
FROM smart_views
WHERE workspace_id = $1
ORDER BY name, id`

	rows, err := s.pool.Query(ctx, q, workspaceID)
	if err != nil {
		return nil, errors.Wrap(err, "list views")
	}
	defer rows.Close()

	var out []ViewRecord
	for rows.Next() {
		rec, err := scanView(rows)
		if err != nil {
			return nil, errors.Wrap(err, "list views")
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "list views")
}

// Delete removes a view within a workspace.
func (s *ViewStore) Delete(ctx context.Context, workspaceID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM smart_views WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return errors.Wrap(err, "delete view")
	}
	if tag.RowsAffected() == 0 {
		return ErrViewNotFound
	}
	return nil
}

// Atomic runs a callback inside a transaction. A rollback failure after a
// callback error joins both errors so neither is lost.
func (s *ViewStore) Atomic(ctx context.Context, callback func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to start transaction")
	}

	if err := callback(tx); err != nil {
		if txErr := tx.Rollback(ctx); txErr != nil {
			return multierror.Append(err, txErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanView(row rowScanner) (ViewRecord, error) {
	var (
		rec       ViewRecord
		filters   []byte
		sortOrder string
	)
	err := row.Scan(&rec.ID, &rec.WorkspaceID, &rec.Name, &filters,
		&rec.Config.GroupBy, &rec.Config.SecondaryGroupBy,
		&rec.Config.SortBy, &sortOrder,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ViewRecord{}, err
	}
	rec.Config.SortOrder = view.SortOrder(sortOrder)
	rec.Config.Filters, err = filter.DecodeGroup(filters)
	if err != nil {
		return ViewRecord{}, err
	}
	return rec, nil
}
