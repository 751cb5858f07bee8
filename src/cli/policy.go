// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	x509policy "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/policy"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

func parseTestRootKeys(keys []string) ([][sha256.Size]byte, error) {
	out := make([][sha256.Size]byte, 0, len(keys))
	for _, k := range keys {
		b, err := hex.DecodeString(strings.ReplaceAll(k, ":", ""))
		if err != nil || len(b) != sha256.Size {
			return nil, fmt.Errorf("bad test root key %q: want a hex SHA-256 digest", k)
		}
		out = append(out, [sha256.Size]byte(b))
	}
	return out, nil
}

// verdictView is the JSON form of a verdict.
type verdictView struct {
	File         string `json:"file"`
	Policy       string `json:"policy"`
	Status       string `json:"status"`
	Code         uint32 `json:"code"`
	ChainIndex   int    `json:"chainIndex"`
	ElementIndex int    `json:"elementIndex"`
}

func newPolicyCommand(g *globalFlags, log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Verify chains against a policy",
	}

	var (
		opts       buildOptions
		policy     string
		params     x509policy.Params
		allowCA    bool
		ignoreTime bool
		ignoreName bool
		testRoots  []string
		trustTest  bool
	)
	verify := &cobra.Command{
		Use:   "verify FILE",
		Short: "Build the chain of FILE and check it against a policy",
		Args:  cobra.MaximumNArgs(1),
		RunE: track(func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return ErrInputFileRequired
			}
			at, err := opts.time()
			if err != nil {
				return err
			}
			keys, err := parseTestRootKeys(testRoots)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context(), g, log, true)
			if err != nil {
				return err
			}
			defer e.Close()

			cc, err := buildFromFile(cmd.Context(), e.engine, args[0], at, opts.flags())
			if err != nil {
				return err
			}
			defer cc.Free()

			p := params
			if allowCA {
				p.Flags |= x509policy.AllowUnknownCA
			}
			if ignoreTime {
				p.Flags |= x509policy.IgnoreNotTimeValid
			}
			if ignoreName {
				p.Flags |= x509policy.IgnoreInvalidName
			}
			if trustTest {
				p.Flags |= x509policy.TrustTestRoot
			}

			reg := x509policy.NewRegistry(x509policy.WithTestRootKeys(keys...), x509policy.WithLogger(log))
			id := x509policy.ParseID(policy)
			v, err := reg.Verify(id, cc, &p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if e.cfg.Output.Format == config.FormatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(verdictView{
					File:         args[0],
					Policy:       string(id),
					Status:       v.Status.String(),
					Code:         uint32(v.Status),
					ChainIndex:   v.ChainIndex,
					ElementIndex: v.ElementIndex,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s: policy %s: %s\n", args[0], id, v.Status)
			}
			return v.Err()
		}),
	}
	opts.register(verify)
	f := verify.Flags()
	f.StringVarP(&policy, "policy", "p", "base", "policy: base, authenticode, ssl, basic-constraints or a registered id")
	f.StringVar(&params.ServerName, "server-name", "", "host name the SSL policy matches against the leaf")
	f.BoolVar(&params.Client, "client", false, "check client instead of server authentication usage")
	f.BoolVar(&allowCA, "allow-unknown-ca", false, "accept chains ending in an untrusted root")
	f.BoolVar(&ignoreTime, "ignore-time", false, "accept expired certificates")
	f.BoolVar(&ignoreName, "ignore-name", false, "accept a leaf that does not match --server-name")
	f.StringSliceVar(&testRoots, "test-root-key", nil, "hex SHA-256 of a test root SubjectPublicKeyInfo")
	f.BoolVar(&trustTest, "trust-test-root", false, "accept roots on the test root allow-list")

	cmd.AddCommand(verify)
	return cmd
}
