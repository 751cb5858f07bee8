// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

func TestCLIFramework_Help(t *testing.T) {
	cmd, err := NewCLIFramework("", "1.2.3", nil).BuildRootCommand()
	require.NoError(t, err)
	assert.Contains(t, cmd.Long, "Model Context Protocol")
	assert.NotContains(t, cmd.Long, "## Examples")
	assert.Contains(t, cmd.Example, "--instructions")
	assert.Contains(t, cmd.Example, "--config /etc/x509-trust/config.yaml")
	assert.Equal(t, "1.2.3", cmd.Version)
}

func TestCLIFramework_Instructions(t *testing.T) {
	cmd, err := NewCLIFramework("", "1.2.3", nil).BuildRootCommand()
	require.NoError(t, err)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--instructions"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "# X.509 Trust Store MCP Server")
	assert.Contains(t, out.String(), "Call `build_chain`")
}

func TestCLIFramework_Errors(t *testing.T) {
	t.Run("unexpected argument", func(t *testing.T) {
		cmd, err := NewCLIFramework("", "test", nil).BuildRootCommand()
		require.NoError(t, err)
		cmd.SetArgs([]string{"serve"})
		cmd.SetOut(io.Discard)
		assert.Error(t, cmd.ExecuteContext(context.Background()))
	})

	t.Run("bad config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stores: ["), 0o600))
		cmd, err := NewCLIFramework(path, "test", nil).BuildRootCommand()
		require.NoError(t, err)
		cmd.SetArgs([]string{})
		assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "failed to load config")
	})
}

func TestServe_Shutdown(t *testing.T) {
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	var logs bytes.Buffer
	err := Serve(ctx, config.Default(), "test", in, io.Discard, logger.NewJSONLogger(&logs, false))
	assert.NoError(t, err)
	assert.Contains(t, logs.String(), "MCP server test started")
}

func TestGetVersion(t *testing.T) {
	assert.NotEmpty(t, GetVersion())
}
