// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package persist

import (
	"context"
	"errors"

	"github.com/opencontainers/go-digest"
)

// ErrClosed is returned by a backend used after Close.
var ErrClosed = errors.New("persist: backend closed")

// Property is one persisted property blob.
type Property struct {
	ID    uint32
	Value []byte
}

// Record is one persisted object.
type Record struct {
	Encoded    []byte
	Properties []Property
}

// Digest returns the content address of r.
func (r Record) Digest() digest.Digest { return digest.FromBytes(r.Encoded) }

// Backend stores the full content of a provider store.
//
// Save replaces everything previously saved. Load returns records in the
// order they were saved. Implementations are safe for concurrent use.
type Backend interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
	Close() error
}
