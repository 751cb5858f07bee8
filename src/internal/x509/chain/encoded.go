// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"time"

	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// BuildEncoded decodes a PEM, DER or PKCS#7 blob and builds a chain for its
// first certificate. The remaining certificates are offered as an extra
// store for this build only.
func (e *Engine) BuildEncoded(ctx context.Context, data []byte, at time.Time, flags Flags) (*ChainContext, error) {
	certs, err := e.codec.DecodeMultiple(data)
	if err != nil {
		return nil, err
	}
	if len(certs) == 0 {
		return nil, trusterr.ErrInvalidParameter
	}
	leaf, err := x509ctx.FromCertificate(certs[0], x509ctx.WithProvider(e.provider))
	if err != nil {
		return nil, err
	}
	defer leaf.Release()

	var extra x509store.Store
	if len(certs) > 1 {
		m, err := x509store.NewMemoryFrom(certs[1:], x509store.WithName("extra"), x509store.WithLogger(e.log), x509store.WithCryptoProvider(e.provider))
		if err != nil {
			return nil, err
		}
		defer m.Close()
		extra = m
	}
	return e.BuildChain(ctx, leaf, at, extra, flags)
}
