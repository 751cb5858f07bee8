// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

// env is the opened configuration of one command run.
type env struct {
	cfg     *config.Config
	stores  *config.Stores
	engine  *x509chain.Engine
	log     logger.Logger
	logFile *os.File
}

// sourceFor infers a store source from a path.
func sourceFor(path string) config.Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return config.Source{Kind: config.KindSQLite, Path: path}
	case ".pem", ".crt", ".cer", ".der", ".p7b", ".p7c":
		return config.Source{Kind: config.KindFile, Path: path}
	}
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		return config.Source{Kind: config.KindFile, Path: path}
	}
	return config.Source{Kind: config.KindDir, Path: path}
}

// openEnv loads the configuration, applies flag overrides and opens the
// stores. withEngine also builds a chain engine over them.
func openEnv(ctx context.Context, g *globalFlags, log logger.Logger, withEngine bool) (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	overrides := []struct {
		flag string
		dst  *config.Source
	}{
		{g.root, &cfg.Stores.Root},
		{g.ca, &cfg.Stores.CA},
		{g.my, &cfg.Stores.My},
		{g.trust, &cfg.Stores.Trust},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.dst = sourceFor(o.flag)
		}
	}
	if g.format != "" {
		cfg.Output.Format = g.format
	}
	switch cfg.Output.Format {
	case config.FormatTree, config.FormatTable, config.FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Output.Format)
	}

	e := &env{cfg: cfg, log: log}
	if err := e.setupLogging(g.verbose); err != nil {
		return nil, err
	}
	if e.stores, err = cfg.OpenStores(ctx, log); err != nil {
		e.Close()
		return nil, err
	}
	if withEngine {
		e.engine, err = x509chain.NewEngine(cfg.EngineConfig(e.stores), x509chain.WithLogger(log))
		if err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

func (e *env) setupLogging(verbose bool) error {
	if v, ok := e.log.(interface{ SetVerbose(bool) }); ok {
		v.SetVerbose(verbose || e.cfg.Logging.Verbose)
	}
	switch {
	case e.cfg.Logging.Silent:
		e.log.SetOutput(io.Discard)
	case e.cfg.Logging.File != "":
		f, err := os.OpenFile(e.cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		e.logFile = f
		e.log.SetOutput(f)
	}
	return nil
}

// store returns the named system store.
func (e *env) store(name string) (x509store.Store, config.Source, error) {
	switch name {
	case "root":
		return e.stores.Root, e.cfg.Stores.Root, nil
	case "ca":
		return e.stores.CA, e.cfg.Stores.CA, nil
	case "my":
		return e.stores.My, e.cfg.Stores.My, nil
	case "trust":
		return e.stores.Trust, e.cfg.Stores.Trust, nil
	}
	return nil, config.Source{}, fmt.Errorf("unknown store %q (want root, ca, my or trust)", name)
}

// Close releases the engine and commits and closes the stores. Calls after
// the first return nil.
func (e *env) Close() error {
	var errs []error
	if e.engine != nil {
		errs = append(errs, e.engine.Close())
		e.engine = nil
	}
	if e.stores != nil {
		errs = append(errs, e.stores.Close())
		e.stores = nil
	}
	if e.logFile != nil {
		errs = append(errs, e.logFile.Close())
		e.logFile = nil
	}
	return errors.Join(errs...)
}
