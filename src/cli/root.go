// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

var (
	// OperationPerformed reports whether a subcommand ran.
	OperationPerformed bool
	// OperationPerformedSuccessfully reports whether it also succeeded.
	OperationPerformedSuccessfully bool
)

// ErrInputFileRequired is returned when a command needs certificate files
// and none were given.
var ErrInputFileRequired = errors.New("at least one certificate file is required")

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	root       string
	ca         string
	my         string
	trust      string
	format     string
	verbose    bool
}

// NewRootCommand returns the root command with every subcommand attached.
func NewRootCommand(version string, log logger.Logger) *cobra.Command {
	if log == nil {
		log = logger.Nop()
	}
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           posix.ExecutableName("x509-trust-store"),
		Short:         "X.509 certificate trust store and chain engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "configuration file (JSON or YAML, default $X509_TRUST_CONFIG_FILE)")
	pf.StringVar(&g.root, "root", "", "root store source: directory, .db SQLite file or certificate bundle")
	pf.StringVar(&g.ca, "ca", "", "intermediate CA store source")
	pf.StringVar(&g.my, "my", "", "personal store source")
	pf.StringVar(&g.trust, "trust", "", "trust store source")
	pf.StringVarP(&g.format, "format", "F", "", "output format: tree, table or json")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "print debug diagnostics")

	rootCmd.AddCommand(
		newStoreCommand(g, log),
		newChainCommand(g, log),
		newPolicyCommand(g, log),
	)
	return rootCmd
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	return NewRootCommand(version, log).ExecuteContext(ctx)
}

// track wraps a RunE so the operation flags follow its outcome.
func track(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		OperationPerformed = true
		err := run(cmd, args)
		OperationPerformedSuccessfully = err == nil
		return err
	}
}
