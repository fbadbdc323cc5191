// Package mcptools exposes the smart view engine as MCP tools.
//
// Each tool handler follows the same pattern:
// - A struct with its store dependency injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers report user errors through mcp.NewToolResultError instead of a
// Go error, so the client sees a tool-level failure rather than a broken
// transport.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/sqlite"
	"github.com/krew-solutions/smartview-go/smartview/task"
	"github.com/krew-solutions/smartview-go/smartview/templates"
	"github.com/krew-solutions/smartview-go/smartview/view"
)

// Store is what the tool handlers need from the storage layer. The
// embedded sqlite store satisfies it; tests use a fake.
type Store interface {
	ListTasks(ctx context.Context, workspaceID string) ([]task.Task, error)
	GetTask(ctx context.Context, workspaceID, id string) (task.Task, error)
	SaveView(ctx context.Context, v *sqlite.View) error
	GetView(ctx context.Context, workspaceID, id string) (sqlite.View, error)
	ListViews(ctx context.Context, workspaceID string) ([]sqlite.View, error)
	DeleteView(ctx context.Context, workspaceID, id string) error
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// executionContext builds the per-call template context. Tokens like
// {{now}} resolve against the moment the tool call arrives.
func executionContext(req mcp.CallToolRequest) templates.ExecutionContext {
	return templates.ExecutionContext{
		CurrentUserID: req.GetString("user_id", ""),
		Now:           time.Now().UTC(),
	}
}

// decodeFilters parses the optional "filters" argument. An empty argument
// means no filtering, which matches every task.
func decodeFilters(req mcp.CallToolRequest) (filter.Group, error) {
	raw := req.GetString("filters", "")
	if raw == "" {
		return filter.Group{}, nil
	}
	return filter.DecodeGroup([]byte(raw))
}

// configFromArgs assembles a view configuration from inline tool
// arguments.
func configFromArgs(req mcp.CallToolRequest) (view.Config, error) {
	filters, err := decodeFilters(req)
	if err != nil {
		return view.Config{}, err
	}
	cfg := view.Config{
		Filters:          filters,
		GroupBy:          req.GetString("group_by", ""),
		SecondaryGroupBy: req.GetString("secondary_group_by", ""),
		SortBy:           req.GetString("sort_by", ""),
		SortOrder:        view.SortOrder(req.GetString("sort_order", "")),
	}
	if err := cfg.Validate(); err != nil {
		return view.Config{}, err
	}
	return cfg, nil
}

// Rendered shapes. The engine's empty ungrouped key is rendered as the
// explicit word so clients never see an empty group name.

const renderedUngroupedKey = "ungrouped"

type taskJSON struct {
	ID             string     `json:"id"`
	SequenceNumber int64      `json:"sequence_number"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	StateCategory  string     `json:"state_category"`
	Priority       string     `json:"priority,omitempty"`
	AssigneeID     string     `json:"assignee_id,omitempty"`
	LabelIDs       []string   `json:"label_ids,omitempty"`
	ProjectID      string     `json:"project_id,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type bucketJSON struct {
	Key    string       `json:"key"`
	Tasks  []taskJSON   `json:"tasks,omitempty"`
	Groups []bucketJSON `json:"groups,omitempty"`
}

type resultJSON struct {
	Groups []bucketJSON `json:"groups"`
	Total  int          `json:"total"`
}

func renderTask(t task.Task) taskJSON {
	return taskJSON{
		ID:             t.ID,
		SequenceNumber: t.SequenceNumber,
		Title:          t.Title,
		Description:    t.Description,
		StateCategory:  string(t.StateCategory),
		Priority:       t.Priority,
		AssigneeID:     t.AssigneeID,
		LabelIDs:       t.LabelIDs,
		ProjectID:      t.ProjectID,
		DueDate:        t.DueDate,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

func renderBucket(b view.Bucket) bucketJSON {
	out := bucketJSON{Key: b.Key}
	if out.Key == view.UngroupedKey {
		out.Key = renderedUngroupedKey
	}
	for _, t := range b.Tasks {
		out.Tasks = append(out.Tasks, renderTask(t))
	}
	for _, nested := range b.Groups {
		out.Groups = append(out.Groups, renderBucket(nested))
	}
	return out
}

func renderResult(r view.Result) (string, error) {
	out := resultJSON{Total: r.Total, Groups: make([]bucketJSON, 0, len(r.Groups))}
	for _, b := range r.Groups {
		out.Groups = append(out.Groups, renderBucket(b))
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("mcptools: encode result: %w", err)
	}
	return string(encoded), nil
}
