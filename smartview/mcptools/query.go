package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/krew-solutions/smartview-go/smartview/sqlite"
	"github.com/krew-solutions/smartview-go/smartview/view"
)

// QueryTool handles the view_query MCP tool.
type QueryTool struct {
	store Store
}

// NewQueryTool creates a QueryTool.
func NewQueryTool(store Store) *QueryTool {
	return &QueryTool{store: store}
}

// Definition returns the MCP tool definition for view_query.
func (t *QueryTool) Definition() mcp.Tool {
	return mcp.NewTool("view_query",
		mcp.WithDescription(
			"Run a smart view over a workspace's tasks: filter, sort, group and paginate. "+
				"Pass view_id to run a saved view, or pass filters/group_by/sort_by inline.",
		),
		mcp.WithString("workspace_id",
			mcp.Required(),
			mcp.Description("Workspace whose tasks are queried"),
		),
		mcp.WithString("view_id",
			mcp.Description("Saved view to run; overrides the inline configuration arguments"),
		),
		mcp.WithString("filters",
			mcp.Description(`Filter tree as JSON, e.g. {"operator":"and","conditions":[{"field":"priority","operator":"eq","value":"high"}]}`),
		),
		mcp.WithString("group_by",
			mcp.Description("Field to group by (e.g. state_category, assignee_id, label_ids)"),
		),
		mcp.WithString("secondary_group_by",
			mcp.Description("Field to group by inside each primary group"),
		),
		mcp.WithString("sort_by",
			mcp.Description("Field to sort by within groups"),
		),
		mcp.WithString("sort_order",
			mcp.Description("asc or desc (default asc)"),
		),
		mcp.WithString("user_id",
			mcp.Description("User resolving {{current_user}} in filter values"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number; 0 returns all tasks"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Tasks per page; 0 returns all tasks"),
		),
	)
}

// Handle processes the view_query tool call.
func (t *QueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID := req.GetString("workspace_id", "")
	if workspaceID == "" {
		return mcp.NewToolResultError("'workspace_id' is required"), nil
	}

	cfg, errResult := t.resolveConfig(ctx, req, workspaceID)
	if errResult != nil {
		return errResult, nil
	}

	tasks, err := t.store.ListTasks(ctx, workspaceID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading tasks failed: %v", err)), nil
	}

	page := view.Page{
		Number: intArg(req, "page", 0),
		Limit:  intArg(req, "limit", 0),
	}
	result, err := view.Execute(tasks, cfg, executionContext(req), page)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("view execution failed: %v", err)), nil
	}

	rendered, err := renderResult(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(rendered), nil
}

// resolveConfig picks the saved view when view_id is given, the inline
// arguments otherwise.
func (t *QueryTool) resolveConfig(ctx context.Context, req mcp.CallToolRequest, workspaceID string) (view.Config, *mcp.CallToolResult) {
	viewID := req.GetString("view_id", "")
	if viewID == "" {
		cfg, err := configFromArgs(req)
		if err != nil {
			return view.Config{}, mcp.NewToolResultError(fmt.Sprintf("invalid view configuration: %v", err))
		}
		return cfg, nil
	}

	saved, err := t.store.GetView(ctx, workspaceID, viewID)
	if errors.Is(err, sqlite.ErrViewNotFound) {
		return view.Config{}, mcp.NewToolResultError(fmt.Sprintf("view %q not found", viewID))
	}
	if err != nil {
		return view.Config{}, mcp.NewToolResultError(fmt.Sprintf("loading view failed: %v", err))
	}
	return saved.Config, nil
}
