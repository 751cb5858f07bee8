// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/helper/gc"
)

// Logger defines the interface for logging operations.
// It provides methods for different log levels and formatted output.
//
// This interface supports both CLI and [MCP] server modes, allowing seamless
// switching between human-readable output and structured logging.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// Debugf formats a diagnostic message. It is dropped unless the
	// logger runs in verbose mode.
	Debugf(format string, v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct {
	logger  *log.Logger
	verbose atomic.Bool
}

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// Debugf prints a message prefixed with "debug:" when verbose mode is on.
func (c *CLILogger) Debugf(format string, v ...any) {
	if !c.verbose.Load() {
		return
	}
	c.logger.Printf("debug: "+format, v...)
}

// SetVerbose toggles debug output.
func (c *CLILogger) SetVerbose(on bool) { c.verbose.Store(on) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// JSONLogger implements Logger with one JSON object per line.
// It suppresses output by default since [MCP] communication happens over stdio,
// but can be configured to write structured logs to a separate destination.
//
// JSONLogger is safe for concurrent use by multiple goroutines.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type JSONLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	silent  bool
	verbose atomic.Bool
}

// NewJSONLogger creates a new JSON logger.
// With silent=true output is suppressed so the [MCP] stdio protocol is not
// disturbed. Set silent=false and provide a writer to enable structured
// logging to a file or stderr.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func NewJSONLogger(writer io.Writer, silent bool) *JSONLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONLogger{
		writer: writer,
		silent: silent,
	}
}

type entry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// write encodes one entry through a pooled buffer.
func (j *JSONLogger) write(level, msg string) {
	if j.silent {
		return
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	// Encoding a struct of two strings cannot fail.
	_ = json.NewEncoder(buf).Encode(entry{Level: level, Message: msg})

	j.mu.Lock()
	buf.WriteTo(j.writer)
	j.mu.Unlock()
}

// Printf formats and logs a structured message at info level.
// Output is suppressed if silent mode is enabled.
//
// Printf is safe for concurrent use by multiple goroutines.
func (j *JSONLogger) Printf(format string, v ...any) { j.write("info", fmt.Sprintf(format, v...)) }

// Println logs a structured message at info level.
// Output is suppressed if silent mode is enabled.
//
// Println is safe for concurrent use by multiple goroutines.
func (j *JSONLogger) Println(v ...any) { j.write("info", fmt.Sprint(v...)) }

// Debugf logs a structured message at debug level when verbose mode is on.
func (j *JSONLogger) Debugf(format string, v ...any) {
	if !j.verbose.Load() {
		return
	}
	j.write("debug", fmt.Sprintf(format, v...))
}

// SetVerbose toggles debug output.
func (j *JSONLogger) SetVerbose(on bool) { j.verbose.Store(on) }

// SetOutput sets the output destination for the JSON logger.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (j *JSONLogger) SetOutput(w io.Writer) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if w == nil {
		j.writer = io.Discard
	} else {
		j.writer = w
	}
}

type nop struct{}

func (nop) Printf(string, ...any) {}
func (nop) Println(...any)        {}
func (nop) Debugf(string, ...any) {}
func (nop) SetOutput(io.Writer)   {}

// Nop returns a Logger that discards everything. Library packages use it
// when no logger is configured.
func Nop() Logger { return nop{} }
