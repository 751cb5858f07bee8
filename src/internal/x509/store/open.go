// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"context"
	"fmt"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store/persist"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// Config selects what Open builds.
type Config struct {
	// Backend is required for provider stores and ignored otherwise.
	Backend persist.Backend
	Options []Option
}

// Open returns a new store of the given kind.
func Open(ctx context.Context, kind Kind, cfg Config) (Store, error) {
	switch kind {
	case KindMemory:
		return NewMemory(cfg.Options...), nil
	case KindCollection:
		return NewCollection(cfg.Options...), nil
	case KindProvider:
		if cfg.Backend == nil {
			return nil, fmt.Errorf("%w: provider store needs a backend", trusterr.ErrInvalidParameter)
		}
		return OpenProvider(ctx, cfg.Backend, cfg.Options...)
	}
	return nil, fmt.Errorf("%w: store kind %d", trusterr.ErrInvalidParameter, int(kind))
}
