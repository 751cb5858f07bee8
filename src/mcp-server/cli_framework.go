// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
	"github.com/H0llyW00dzZ/x509-trust-store/src/mcp-server/templates"
)

// cliHelpData fills cli_help.md.
type cliHelpData struct {
	ExeName              string
	InstructionsFlagName string
	ConfigFlagName       string
}

// CLIFramework wraps the MCP server in a cobra command. Running the command
// without arguments serves MCP on the configured streams; --instructions
// prints the workflows sent to clients instead, in the style of gopls.
type CLIFramework struct {
	configFile string
	version    string
	embed      templates.EmbedFS
	log        logger.Logger
	in         io.Reader
	out        io.Writer
}

// NewCLIFramework returns a framework serving on stdin and stdout. An empty
// configFile falls back to X509_TRUST_CONFIG_FILE and then to defaults.
func NewCLIFramework(configFile, version string, log logger.Logger) *CLIFramework {
	if log == nil {
		log = logger.Nop()
	}
	return &CLIFramework{
		configFile: configFile,
		version:    version,
		embed:      templates.MagicEmbed,
		log:        log,
		in:         os.Stdin,
		out:        os.Stdout,
	}
}

// WithStreams replaces the MCP transport streams.
func (cf *CLIFramework) WithStreams(in io.Reader, out io.Writer) *CLIFramework {
	cf.in, cf.out = in, out
	return cf
}

// BuildRootCommand returns the root command.
func (cf *CLIFramework) BuildRootCommand() (*cobra.Command, error) {
	exeName := posix.GetExecutableName()

	var showInstructions bool
	rootCmd := &cobra.Command{
		Use:           exeName,
		Short:         "X.509 trust store with MCP server integration",
		Version:       cf.version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showInstructions {
				return cf.printInstructions(cmd.OutOrStdout())
			}
			return cf.startMCPServer(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().BoolVar(&showInstructions, "instructions", false, "print usage workflows for trust store operations")
	rootCmd.PersistentFlags().StringVar(&cf.configFile, "config", cf.configFile, "path to trust store configuration file")

	longDesc, examples, err := cf.renderHelp(cliHelpData{
		ExeName:              exeName,
		InstructionsFlagName: "--" + rootCmd.PersistentFlags().Lookup("instructions").Name,
		ConfigFlagName:       "--" + rootCmd.PersistentFlags().Lookup("config").Name,
	})
	if err != nil {
		return nil, err
	}
	rootCmd.Long = longDesc
	rootCmd.Example = examples
	return rootCmd, nil
}

// renderHelp executes cli_help.md and splits it at the "## Examples" line.
func (cf *CLIFramework) renderHelp(data cliHelpData) (longDesc, examples string, err error) {
	templateBytes, err := cf.embed.ReadFile("cli_help.md")
	if err != nil {
		return "", "", fmt.Errorf("failed to load CLI help template: %w", err)
	}
	tmpl, err := template.New("cli_help").Parse(string(templateBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse CLI help template: %w", err)
	}
	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", "", fmt.Errorf("failed to execute CLI help template: %w", err)
	}

	before, after, ok := strings.Cut(result.String(), "## Examples")
	if !ok {
		return "", "", fmt.Errorf("CLI help template has invalid format - missing '## Examples' section")
	}
	return strings.TrimSpace(before), strings.Trim(after, "\n"), nil
}

// printInstructions renders the instructions against the default tool set.
// The tools are never called, so they are bound to an empty service.
func (cf *CLIFramework) printInstructions(w io.Writer) error {
	instructions, err := loadInstructions(cf.embed, createTools(&Service{}))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, instructions)
	return err
}

func (cf *CLIFramework) startMCPServer(ctx context.Context) error {
	cfg, err := config.Load(cf.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return Serve(ctx, cfg, cf.version, cf.in, cf.out, cf.log)
}
