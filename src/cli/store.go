// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

func newStoreCommand(g *globalFlags, log logger.Logger) *cobra.Command {
	var storeName string
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the certificate stores",
	}
	cmd.PersistentFlags().StringVarP(&storeName, "store", "s", "ca", "store to operate on: root, ca, my or trust")

	var disposition string
	add := &cobra.Command{
		Use:   "add FILE...",
		Short: "Add certificates from PEM, DER or PKCS#7 files",
		RunE: track(func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return ErrInputFileRequired
			}
			disp, err := x509store.ParseDisposition(disposition)
			if err != nil {
				return err
			}
			e, s, err := openWritable(cmd, g, log, storeName)
			if err != nil {
				return err
			}
			defer e.Close()

			codec := x509certs.New()
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("error reading input file: %w", err)
				}
				certs, err := codec.DecodeMultiple(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				for _, cert := range certs {
					c, err := x509store.AddCertificate(s, cert, disp)
					if err != nil {
						return fmt.Errorf("add %s: %w", cert.Subject, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", describe(c))
					c.Release()
				}
			}
			return e.Close()
		}),
	}
	add.Flags().StringVarP(&disposition, "disposition", "d", x509store.UseExisting.String(),
		"duplicate handling: always, new, replace, replace-inherit or use-existing")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the certificates of a store",
		Args:  cobra.NoArgs,
		RunE: track(func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), g, log, false)
			if err != nil {
				return err
			}
			defer e.Close()
			s, _, err := e.store(storeName)
			if err != nil {
				return err
			}
			return listStore(cmd.OutOrStdout(), s, e.cfg.Output.Format)
		}),
	}

	del := &cobra.Command{
		Use:   "delete SHA1...",
		Short: "Delete certificates by SHA-1 thumbprint",
		RunE: track(func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one thumbprint is required")
			}
			e, s, err := openWritable(cmd, g, log, storeName)
			if err != nil {
				return err
			}
			defer e.Close()
			for _, arg := range args {
				h, err := hex.DecodeString(strings.ReplaceAll(arg, ":", ""))
				if err != nil {
					return fmt.Errorf("bad thumbprint %q: %w", arg, err)
				}
				c, err := x509store.FindByHash(s, h)
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				name := describe(c)
				err = s.Delete(c)
				c.Release()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			}
			return e.Close()
		}),
	}

	var der bool
	var outputFile string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export every certificate of a store",
		Args:  cobra.NoArgs,
		RunE: track(func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), g, log, false)
			if err != nil {
				return err
			}
			defer e.Close()
			s, _, err := e.store(storeName)
			if err != nil {
				return err
			}
			f := x509store.FormatPEM
			if der {
				f = x509store.FormatDER
			}
			data, err := x509store.Export(s, f)
			if err != nil {
				return err
			}
			if outputFile != "" {
				if err := os.WriteFile(outputFile, data, 0o644); err != nil {
					return fmt.Errorf("error writing to output file: %w", err)
				}
				return nil
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}),
	}
	export.Flags().BoolVarP(&der, "der", "d", false, "output DER format")
	export.Flags().StringVarP(&outputFile, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")

	cmd.AddCommand(add, list, del, export)
	return cmd
}

// openWritable opens the environment and checks that the named store keeps
// its changes.
func openWritable(cmd *cobra.Command, g *globalFlags, log logger.Logger, name string) (*env, x509store.Store, error) {
	e, err := openEnv(cmd.Context(), g, log, false)
	if err != nil {
		return nil, nil, err
	}
	s, src, err := e.store(name)
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	if src.Kind != config.KindDir && src.Kind != config.KindSQLite {
		e.Close()
		return nil, nil, fmt.Errorf("store %s is a %s source and does not persist changes", name, src.Kind)
	}
	return e, s, nil
}

func describe(c x509ctx.Context) string {
	h, err := x509ctx.Hash(c)
	if err != nil {
		return c.Cert().Subject.String()
	}
	return fmt.Sprintf("%s [%s]", c.Cert().Subject, hex.EncodeToString(h))
}

// storeEntry is the list form of a stored certificate.
type storeEntry struct {
	SHA1     string `json:"sha1"`
	Subject  string `json:"subject"`
	Issuer   string `json:"issuer"`
	NotAfter string `json:"notAfter"`
	IsCA     bool   `json:"isCA"`
}

func listStore(w io.Writer, s x509store.Store, format string) error {
	var entries []storeEntry
	err := x509store.Walk(s, func(c x509ctx.Context) bool {
		h, _ := x509ctx.Hash(c)
		cert := c.Cert()
		entries = append(entries, storeEntry{
			SHA1:     hex.EncodeToString(h),
			Subject:  cert.Subject.String(),
			Issuer:   cert.Issuer.String(),
			NotAfter: cert.NotAfter.UTC().Format("2006-01-02"),
			IsCA:     cert.IsCA,
		})
		return true
	})
	if err != nil {
		return err
	}

	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []storeEntry{}
		}
		return enc.Encode(entries)
	case config.FormatTable:
		table := tablewriter.NewTable(w,
			tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
		)
		table.Header([]string{"SHA-1", "Subject", "Issuer", "Valid Until", "CA"})
		for _, e := range entries {
			table.Append([]string{e.SHA1, e.Subject, e.Issuer, e.NotAfter, fmt.Sprint(e.IsCA)})
		}
		return table.Render()
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s\n", e.SHA1, e.Subject)
	}
	return nil
}
