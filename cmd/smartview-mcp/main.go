// smartview-mcp: smart view query engine MCP server
//
// Serves the task tracker's smart view tools over MCP's stdio transport,
// backed by an embedded SQLite database.
//
// Usage:
//
//	smartview-mcp [--data-dir DIR]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	smartviewserver "github.com/krew-solutions/smartview-go/smartview/server"
)

func main() {
	dataDir := pflag.String("data-dir", "", "directory for the task database (default $SMARTVIEW_DATA_DIR or ~/.smartview)")
	version := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *version {
		fmt.Printf("smartview-mcp v%s\n", smartviewserver.Version)
		os.Exit(0)
	}

	// Stdout belongs to the stdio transport; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *dataDir == "" {
		*dataDir = os.Getenv("SMARTVIEW_DATA_DIR")
	}

	if err := run(logger, *dataDir); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, dataDir string) error {
	s, cleanup, err := smartviewserver.New(dataDir)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	logger.Info("serving smart view tools over stdio", "version", smartviewserver.Version)
	return server.ServeStdio(s)
}
