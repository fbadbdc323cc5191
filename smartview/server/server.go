// Package server wires the store and the MCP tools into a server instance.
//
// This is the composition root: it creates the concrete sqlite store and
// injects it into the tools. No query logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/krew-solutions/smartview-go/smartview/mcptools"
	"github.com/krew-solutions/smartview-go/smartview/sqlite"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every tool registered over a store in
// dataDir. An empty dataDir uses the default location under the user's
// home directory.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer).
func New(dataDir string) (*server.MCPServer, func(), error) {
	cfg := sqlite.DefaultConfig()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	store, err := sqlite.New(cfg)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() { _ = store.Close() }

	s := server.NewMCPServer(
		"smartview",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(
			"Smart view query engine for a task tracker. Use view_query to filter, "+
				"sort and group a workspace's tasks, view_save/view_list/view_delete to "+
				"manage saved views, and task_match to test filters against one task.",
		),
	)

	queryTool := mcptools.NewQueryTool(store)
	s.AddTool(queryTool.Definition(), queryTool.Handle)

	matchTool := mcptools.NewMatchTool(store)
	s.AddTool(matchTool.Definition(), matchTool.Handle)

	saveTool := mcptools.NewSaveViewTool(store)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	listTool := mcptools.NewListViewsTool(store)
	s.AddTool(listTool.Definition(), listTool.Handle)

	deleteTool := mcptools.NewDeleteViewTool(store)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	return s, cleanup, nil
}
