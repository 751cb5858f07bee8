// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logger provides abstraction and implementation for logging operations.
// It defines the Logger interface and provides three implementations: CLILogger for
// human-readable command-line output, JSONLogger for structured JSON logging
// in MCP server environments, and a no-op logger for library defaults.
// JSONLogger encodes through the shared buffer pool and is safe for concurrent use.
package logger
