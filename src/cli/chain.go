// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

// buildOptions are the per run chain flags shared by chain and policy.
type buildOptions struct {
	at           string
	lowerQuality bool
	retrieve     bool
	cache        bool
}

func (o *buildOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.at, "at", "", "validation time in RFC 3339 (default: now)")
	cmd.Flags().BoolVar(&o.lowerQuality, "lower-quality", false, "keep lower quality alternates")
	cmd.Flags().BoolVar(&o.retrieve, "retrieve", false, "download missing issuers from AIA URLs")
	cmd.Flags().BoolVar(&o.cache, "cache", false, "cache the chain of the end certificate")
}

func (o *buildOptions) flags() x509chain.Flags {
	var f x509chain.Flags
	if o.lowerQuality {
		f |= x509chain.ReturnLowerQuality
	}
	if o.retrieve {
		f |= x509chain.RetrieveIssuers
	}
	if o.cache {
		f |= x509chain.CacheEndCert
	}
	return f
}

func (o *buildOptions) time() (time.Time, error) {
	if o.at == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, o.at)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad --at value: %w", err)
	}
	return t, nil
}

// buildFromFile builds a chain for the first certificate of path.
func buildFromFile(ctx context.Context, e *x509chain.Engine, path string, at time.Time, flags x509chain.Flags) (*x509chain.ChainContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}
	cc, err := e.BuildEncoded(ctx, data, at, flags)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cc, nil
}

func newChainCommand(g *globalFlags, log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Build certificate chains",
	}

	var opts buildOptions
	var outputFile string
	build := &cobra.Command{
		Use:   "build FILE...",
		Short: "Build and score the chain of each input certificate",
		Long: `Build the best chain for the first certificate of each file.
Further certificates in a file are treated as untrusted intermediates.`,
		RunE: track(func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return ErrInputFileRequired
			}
			at, err := opts.time()
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context(), g, log, true)
			if err != nil {
				return err
			}
			defer e.Close()

			results := make([]*x509chain.ChainContext, len(args))
			defer func() {
				for _, cc := range results {
					if cc != nil {
						cc.Free()
					}
				}
			}()

			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.SetLimit(runtime.GOMAXPROCS(0))
			for i, path := range args {
				eg.Go(func() error {
					cc, err := buildFromFile(ctx, e.engine, path, at, opts.flags())
					if err != nil {
						return err
					}
					results[i] = cc
					log.Debugf("%s: %s", path, cc.Quality())
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("error writing to output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return renderChains(out, args, results, e.cfg.Output.Format)
		}),
	}
	opts.register(build)
	build.Flags().StringVarP(&outputFile, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")

	cmd.AddCommand(build)
	return cmd
}

// renderChains writes one result per input in input order.
func renderChains(w io.Writer, names []string, results []*x509chain.ChainContext, format string) error {
	if format == config.FormatJSON {
		var sb strings.Builder
		sb.WriteString("[")
		for i, cc := range results {
			data, err := cc.ToJSON()
			if err != nil {
				return err
			}
			if i > 0 {
				sb.WriteString(",")
			}
			sb.Write(data)
		}
		sb.WriteString("]\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	for i, cc := range results {
		fmt.Fprintf(w, "%s: %s\n", names[i], cc.Quality())
		for j, chain := range cc.Chains {
			if len(cc.Chains) > 1 {
				fmt.Fprintf(w, "chain %d:\n", j)
			}
			if format == config.FormatTable {
				fmt.Fprintln(w, chain.RenderTable())
				continue
			}
			fmt.Fprint(w, chain.RenderASCIITree())
		}
		for j, lower := range cc.LowerQuality {
			fmt.Fprintf(w, "lower quality %d (%s):\n", j, lower.Quality())
			fmt.Fprint(w, lower.Primary().RenderASCIITree())
		}
	}
	return nil
}
