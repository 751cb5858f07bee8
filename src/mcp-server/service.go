// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	x509policy "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/policy"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

// Service is the trust store state the tools operate on.
type Service struct {
	cfg      *config.Config
	stores   *config.Stores
	engine   *x509chain.Engine
	registry *x509policy.Registry
	codec    *x509certs.Certificate
	log      logger.Logger
}

// NewService opens the stores described by cfg and builds an engine over
// them. A nil log discards diagnostics.
func NewService(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}
	stores, err := cfg.OpenStores(ctx, log)
	if err != nil {
		return nil, err
	}
	engine, err := x509chain.NewEngine(cfg.EngineConfig(stores), x509chain.WithLogger(log))
	if err != nil {
		stores.Close()
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		stores:   stores,
		engine:   engine,
		registry: x509policy.NewRegistry(x509policy.WithLogger(log)),
		codec:    x509certs.New(),
		log:      log,
	}, nil
}

// Engine returns the chain engine.
func (s *Service) Engine() *x509chain.Engine { return s.engine }

// Registry returns the policy registry.
func (s *Service) Registry() *x509policy.Registry { return s.registry }

// store returns a system store by name.
func (s *Service) store(name string) (x509store.Store, config.Source, error) {
	switch name {
	case "root":
		return s.stores.Root, s.cfg.Stores.Root, nil
	case "ca":
		return s.stores.CA, s.cfg.Stores.CA, nil
	case "my":
		return s.stores.My, s.cfg.Stores.My, nil
	case "trust":
		return s.stores.Trust, s.cfg.Stores.Trust, nil
	}
	return nil, config.Source{}, fmt.Errorf("unknown store %q (want root, ca, my or trust)", name)
}

// Close releases the engine and commits the stores.
func (s *Service) Close() error {
	return errors.Join(s.engine.Close(), s.stores.Close())
}

// readCertificateInput accepts a file path, PEM text or base64 DER.
func readCertificateInput(input string) ([]byte, error) {
	if strings.Contains(input, "-----BEGIN") {
		return []byte(input), nil
	}
	if data, err := os.ReadFile(input); err == nil {
		return data, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input)); err == nil {
		return decoded, nil
	}
	return nil, errors.New("not a valid file path, PEM text or base64 data")
}
