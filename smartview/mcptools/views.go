package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/krew-solutions/smartview-go/smartview/sqlite"
)

// SaveViewTool handles the view_save MCP tool.
type SaveViewTool struct {
	store Store
}

// NewSaveViewTool creates a SaveViewTool.
func NewSaveViewTool(store Store) *SaveViewTool {
	return &SaveViewTool{store: store}
}

// Definition returns the MCP tool definition for view_save.
func (t *SaveViewTool) Definition() mcp.Tool {
	return mcp.NewTool("view_save",
		mcp.WithDescription(
			"Create or update a saved smart view. Pass view_id to update an existing view.",
		),
		mcp.WithString("workspace_id",
			mcp.Required(),
			mcp.Description("Workspace the view belongs to"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name for the view"),
		),
		mcp.WithString("view_id",
			mcp.Description("Existing view to update; omit to create a new one"),
		),
		mcp.WithString("filters",
			mcp.Description("Filter tree as JSON"),
		),
		mcp.WithString("group_by",
			mcp.Description("Field to group by"),
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
	)
}

// Handle processes the view_save tool call.
func (t *SaveViewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID := req.GetString("workspace_id", "")
	if workspaceID == "" {
		return mcp.NewToolResultError("'workspace_id' is required"), nil
	}
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	cfg, err := configFromArgs(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid view configuration: %v", err)), nil
	}

	v := sqlite.View{
		ID:          req.GetString("view_id", ""),
		WorkspaceID: workspaceID,
		Name:        name,
		Config:      cfg,
	}
	if err := t.store.SaveView(ctx, &v); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("saving view failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved view %q (id %s).", v.Name, v.ID)), nil
}

// ListViewsTool handles the view_list MCP tool.
type ListViewsTool struct {
	store Store
}

// NewListViewsTool creates a ListViewsTool.
func NewListViewsTool(store Store) *ListViewsTool {
	return &ListViewsTool{store: store}
}

// Definition returns the MCP tool definition for view_list.
func (t *ListViewsTool) Definition() mcp.Tool {
	return mcp.NewTool("view_list",
		mcp.WithDescription("List a workspace's saved smart views."),
		mcp.WithString("workspace_id",
			mcp.Required(),
			mcp.Description("Workspace whose views are listed"),
		),
	)
}

// Handle processes the view_list tool call.
func (t *ListViewsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID := req.GetString("workspace_id", "")
	if workspaceID == "" {
		return mcp.NewToolResultError("'workspace_id' is required"), nil
	}

	views, err := t.store.ListViews(ctx, workspaceID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing views failed: %v", err)), nil
	}
	if len(views) == 0 {
		return mcp.NewToolResultText("No saved views in this workspace."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d views:\n\n", len(views))
	for i, v := range views {
		shape := "flat"
		if v.Config.GroupBy != "" {
			shape = "grouped by " + v.Config.GroupBy
			if v.Config.SecondaryGroupBy != "" {
				shape += ", then " + v.Config.SecondaryGroupBy
			}
		}
		fmt.Fprintf(&b, "[%d] %s (id %s)\n    %s\n", i+1, v.Name, v.ID, shape)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// DeleteViewTool handles the view_delete MCP tool.
type DeleteViewTool struct {
	store Store
}

// NewDeleteViewTool creates a DeleteViewTool.
func NewDeleteViewTool(store Store) *DeleteViewTool {
	return &DeleteViewTool{store: store}
}

// Definition returns the MCP tool definition for view_delete.
func (t *DeleteViewTool) Definition() mcp.Tool {
	return mcp.NewTool("view_delete",
		mcp.WithDescription("Delete a saved smart view."),
		mcp.WithString("workspace_id",
			mcp.Required(),
			mcp.Description("Workspace the view belongs to"),
		),
		mcp.WithString("view_id",
			mcp.Required(),
			mcp.Description("View to delete"),
		),
	)
}

// Handle processes the view_delete tool call.
func (t *DeleteViewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID := req.GetString("workspace_id", "")
	if workspaceID == "" {
		return mcp.NewToolResultError("'workspace_id' is required"), nil
	}
	viewID := req.GetString("view_id", "")
	if viewID == "" {
		return mcp.NewToolResultError("'view_id' is required"), nil
	}

	err := t.store.DeleteView(ctx, workspaceID, viewID)
	if errors.Is(err, sqlite.ErrViewNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("view %q not found", viewID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("deleting view failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted view %s.", viewID)), nil
}
