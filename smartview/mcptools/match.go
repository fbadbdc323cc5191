package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/krew-solutions/smartview-go/smartview/filter"
	"github.com/krew-solutions/smartview-go/smartview/sqlite"
)

// MatchTool handles the task_match MCP tool.
type MatchTool struct {
	store Store
}

// NewMatchTool creates a MatchTool.
func NewMatchTool(store Store) *MatchTool {
	return &MatchTool{store: store}
}

// Definition returns the MCP tool definition for task_match.
func (t *MatchTool) Definition() mcp.Tool {
	return mcp.NewTool("task_match",
		mcp.WithDescription(
			"Test whether a single task matches a filter tree. Useful for debugging a "+
				"view's filters against a known task.",
		),
		mcp.WithString("workspace_id",
			mcp.Required(),
			mcp.Description("Workspace the task belongs to"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task to test"),
		),
		mcp.WithString("filters",
			mcp.Required(),
			mcp.Description("Filter tree as JSON"),
		),
		mcp.WithString("user_id",
			mcp.Description("User resolving {{current_user}} in filter values"),
		),
	)
}

// Handle processes the task_match tool call.
func (t *MatchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID := req.GetString("workspace_id", "")
	if workspaceID == "" {
		return mcp.NewToolResultError("'workspace_id' is required"), nil
	}
	taskID := req.GetString("task_id", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	if req.GetString("filters", "") == "" {
		return mcp.NewToolResultError("'filters' is required"), nil
	}

	filters, err := decodeFilters(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filters: %v", err)), nil
	}

	tk, err := t.store.GetTask(ctx, workspaceID, taskID)
	if errors.Is(err, sqlite.ErrTaskNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("task %q not found", taskID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading task failed: %v", err)), nil
	}

	matched, err := filter.Match(tk, filters, executionContext(req))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}

	if matched {
		return mcp.NewToolResultText(fmt.Sprintf("Task #%d matches the filters.", tk.SequenceNumber)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task #%d does not match the filters.", tk.SequenceNumber)), nil
}
