// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
	"github.com/H0llyW00dzZ/x509-trust-store/src/version"
)

var appVersion = version.Version

// GetVersion returns the version passed to the last Run, or the module
// version before that.
func GetVersion() string {
	return appVersion
}

// Serve opens the stores in cfg and serves MCP over in and out until ctx is
// done or the client disconnects. Stores are committed on return.
func Serve(ctx context.Context, cfg *config.Config, version string, in io.Reader, out io.Writer, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	svc, err := NewService(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open trust store: %w", err)
	}
	s, err := NewServerBuilder().
		WithVersion(version).
		WithService(svc).
		WithDefaultTools().
		Build()
	if err != nil {
		svc.Close()
		return fmt.Errorf("failed to build server: %w", err)
	}

	log.Printf("%s MCP server %s started", serverName, version)
	err = server.NewStdioServer(s).Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if cerr := svc.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("server shutdown: %w", cerr))
	}
	return err
}

// Run serves MCP on stdin and stdout with the command line in os.Args.
// SIGINT and SIGTERM stop the server gracefully. Diagnostics go to stderr as
// JSON lines so they never mix with the protocol stream.
func Run(version string) error {
	appVersion = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewJSONLogger(os.Stderr, false)
	rootCmd, err := NewCLIFramework("", version, log).BuildRootCommand()
	if err != nil {
		return err
	}
	return rootCmd.ExecuteContext(ctx)
}
