// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	x509crypto "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/crypto"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

// ErrStaleContext is returned by Enum when prev was removed from the store
// after it was handed out. It matches [trusterr.ErrNotFound].
var ErrStaleContext = fmt.Errorf("%w: context was removed from its store", trusterr.ErrNotFound)

// Kind identifies a store implementation.
type Kind int

const (
	KindMemory Kind = iota + 1
	KindCollection
	KindProvider
)

// String returns the lowercase name of k.
func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindCollection:
		return "collection"
	case KindProvider:
		return "provider"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of [Kind.String].
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindMemory, KindCollection, KindProvider} {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown store kind %q", trusterr.ErrInvalidParameter, s)
}

// Disposition selects how Add treats an object already present in a store.
type Disposition int

const (
	// AlwaysAdd adds without looking for duplicates.
	AlwaysAdd Disposition = iota + 1
	// AddNew fails with [trusterr.ErrExists] when a duplicate is present.
	AddNew
	// ReplaceExisting replaces a duplicate in place.
	ReplaceExisting
	// ReplaceExistingInheritProperties replaces a duplicate and carries its
	// properties over to the replacement.
	ReplaceExistingInheritProperties
	// UseExisting merges the new properties into a duplicate and returns it.
	UseExisting
)

var dispositionNames = map[Disposition]string{
	AlwaysAdd:                        "always",
	AddNew:                           "new",
	ReplaceExisting:                  "replace",
	ReplaceExistingInheritProperties: "replace-inherit",
	UseExisting:                      "use-existing",
}

// String returns the short name accepted by [ParseDisposition].
func (d Disposition) String() string {
	if s, ok := dispositionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("disposition(%d)", int(d))
}

// ParseDisposition is the inverse of [Disposition.String].
func ParseDisposition(s string) (Disposition, error) {
	for d, name := range dispositionNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown disposition %q", trusterr.ErrInvalidParameter, s)
}

// ControlOp is a store control command.
type ControlOp int

const (
	// ControlCommit flushes a provider store to its backend. A true bool
	// argument forces the write even when nothing changed.
	ControlCommit ControlOp = iota + 1
	// ControlResync discards in-memory state and reloads from the backend.
	ControlResync
)

// Store is a container of trust contexts.
//
// Contexts returned by AddContext and Enum carry one reference owned by the
// caller. Implementations are safe for concurrent use.
type Store interface {
	// ID returns the store identity.
	ID() uuid.UUID
	// Kind returns the implementation kind.
	Kind() Kind
	// Name returns the configured display name.
	Name() string
	// AddContext inserts a copy of c. When replace is a context of this
	// store it is swapped out at the same position. Disposition handling
	// lives in [Add].
	AddContext(c, replace x509ctx.Context) (x509ctx.Context, error)
	// Enum returns the context after prev, or the first one when prev is
	// nil. It consumes the caller's reference on prev and returns
	// [trusterr.ErrNotFound] at the end.
	Enum(prev x509ctx.Context) (x509ctx.Context, error)
	// Delete removes c from the store. The caller keeps its reference.
	Delete(c x509ctx.Context) error
	// Control runs a store-specific command.
	Control(op ControlOp, arg any) error
	// Dup takes another reference on the store.
	Dup() Store
	// Close drops one reference. The last one frees the store contents.
	Close() error
}

type options struct {
	name     string
	log      logger.Logger
	codec    x509ctx.Codec
	provider x509crypto.Provider
	readOnly bool
}

// Option configures a store.
type Option func(*options)

// WithName sets the display name.
func WithName(name string) Option { return func(o *options) { o.name = name } }

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithCodec sets the decoder used for encoded input.
func WithCodec(c x509ctx.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCryptoProvider sets the provider used for implicit properties.
func WithCryptoProvider(p x509crypto.Provider) Option {
	return func(o *options) {
		if p != nil {
			o.provider = p
		}
	}
}

// WithReadOnly rejects adds and deletes with [trusterr.ErrAccessDenied].
func WithReadOnly() Option { return func(o *options) { o.readOnly = true } }

func newOptions(opts []Option) options {
	o := options{
		log:      logger.Nop(),
		codec:    x509certs.New(),
		provider: x509crypto.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base carries what every store kind shares.
type base struct {
	id   uuid.UUID
	kind Kind
	refs atomic.Int32
	opts options
}

// setup fills b in place and takes the first reference.
func (b *base) setup(kind Kind, opts []Option) {
	b.id = uuid.New()
	b.kind = kind
	b.opts = newOptions(opts)
	if b.opts.name == "" {
		b.opts.name = kind.String() + "-" + b.id.String()[:8]
	}
	b.refs.Store(1)
}

func (b *base) ID() uuid.UUID { return b.id }
func (b *base) Kind() Kind    { return b.kind }
func (b *base) Name() string  { return b.opts.name }

// drop releases one store reference and reports whether it was the last.
func (b *base) drop() bool {
	n := b.refs.Add(-1)
	if n < 0 {
		panic("x509store: Close on closed store")
	}
	return n == 0
}
