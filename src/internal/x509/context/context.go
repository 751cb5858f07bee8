// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ctx

import (
	"crypto/x509"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	x509crypto "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/crypto"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// Kind is the type of trust object a context holds.
type Kind int

const (
	KindCertificate Kind = iota + 1
	KindCRL
	KindCTL
)

// String returns the lowercase name of k.
func (k Kind) String() string {
	switch k {
	case KindCertificate:
		return "certificate"
	case KindCRL:
		return "crl"
	case KindCTL:
		return "ctl"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Codec parses a single DER encoded certificate and rejects trailing data.
// [x509certs.Certificate] satisfies it.
//
// [x509certs.Certificate]: https://pkg.go.dev/github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs#Certificate
type Codec interface {
	ParseDER(der []byte) (*x509.Certificate, error)
}

// Context is a shared handle to a trust object.
//
// Every handle obtained from a constructor, from AddRef or from a store owns
// one reference and must be released exactly once. Using a context after its
// last reference is released is a caller error.
type Context interface {
	// Kind returns the object type.
	Kind() Kind
	// Encoded returns the encoded object. The slice must not be modified.
	Encoded() []byte
	// Cert returns the decoded certificate.
	Cert() *x509.Certificate
	// Data resolves links down to the canonical data context.
	Data() *Data
	// Properties returns the property list of the canonical data context.
	Properties() *PropertyList
	// Owner returns the store that produced this handle, or nil.
	Owner() any
	// AddRef takes one more reference and returns the receiver.
	AddRef() Context
	// Release drops one reference and reports whether it was the last one.
	Release() bool
	// Refs returns the current reference count.
	Refs() int32
}

// refCount is an atomic counter that runs onZero exactly once.
type refCount struct {
	n    atomic.Int32
	once sync.Once
}

func (r *refCount) init() { r.n.Store(1) }

func (r *refCount) add() {
	if r.n.Add(1) <= 1 {
		panic("x509ctx: AddRef on released context")
	}
}

func (r *refCount) release(onZero func()) bool {
	n := r.n.Add(-1)
	switch {
	case n > 0:
		return false
	case n < 0:
		panic("x509ctx: Release on released context")
	}
	r.once.Do(onZero)
	return true
}

// Data is the canonical owner of an encoded trust object.
type Data struct {
	refs    refCount
	kind    Kind
	encoded []byte
	cert    *x509.Certificate
	props   *PropertyList

	provider  x509crypto.Provider
	implicit  singleflight.Group
	ownerMu   sync.RWMutex
	owner     any
	onRelease func()
}

// DataOption configures a Data context.
type DataOption func(*Data)

// WithProvider sets the crypto provider used for implicit properties.
func WithProvider(p x509crypto.Provider) DataOption {
	return func(d *Data) {
		if p != nil {
			d.provider = p
		}
	}
}

// WithReleaseHook registers fn to run once when the last reference is released.
func WithReleaseHook(fn func()) DataOption {
	return func(d *Data) { d.onRelease = fn }
}

// NewData parses encoded, exactly one DER certificate, and returns a data
// context holding one reference. PEM, bundles and trailing bytes are
// reported as [trusterr.ErrBadEncode]; callers split bundles first.
func NewData(codec Codec, encoded []byte, opts ...DataOption) (*Data, error) {
	if codec == nil || len(encoded) == 0 {
		return nil, trusterr.ErrInvalidParameter
	}
	cert, err := codec.ParseDER(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", trusterr.ErrBadEncode, err)
	}
	return newData(cert, opts...), nil
}

// FromCertificate wraps an already decoded certificate.
func FromCertificate(cert *x509.Certificate, opts ...DataOption) (*Data, error) {
	if cert == nil || len(cert.Raw) == 0 {
		return nil, trusterr.ErrInvalidParameter
	}
	return newData(cert, opts...), nil
}

func newData(cert *x509.Certificate, opts ...DataOption) *Data {
	d := &Data{
		kind:     KindCertificate,
		encoded:  slices.Clone(cert.Raw),
		cert:     cert,
		props:    NewPropertyList(),
		provider: x509crypto.Default,
	}
	d.refs.init()
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Clone returns a fresh data context with the same payload and a copy of
// the properties. Stores use it so that an added object never shares its
// reference count with the caller's object.
func (d *Data) Clone(opts ...DataOption) *Data {
	c := newData(d.cert, append([]DataOption{WithProvider(d.provider)}, opts...)...)
	c.props.CopyFrom(d.props)
	return c
}

// NewCRLData is reserved for revocation lists.
func NewCRLData(Codec, []byte) (*Data, error) { return nil, trusterr.ErrNotImplemented }

// NewCTLData is reserved for certificate trust lists.
func NewCTLData(Codec, []byte) (*Data, error) { return nil, trusterr.ErrNotImplemented }

func (d *Data) Kind() Kind                { return d.kind }
func (d *Data) Encoded() []byte           { return d.encoded }
func (d *Data) Cert() *x509.Certificate   { return d.cert }
func (d *Data) Data() *Data               { return d }
func (d *Data) Properties() *PropertyList { return d.props }
func (d *Data) Refs() int32               { return d.refs.n.Load() }

// Owner returns the store set with SetOwner.
func (d *Data) Owner() any {
	d.ownerMu.RLock()
	defer d.ownerMu.RUnlock()
	return d.owner
}

// SetOwner records the store that holds d.
func (d *Data) SetOwner(owner any) {
	d.ownerMu.Lock()
	d.owner = owner
	d.ownerMu.Unlock()
}

// AddRef takes one more reference.
func (d *Data) AddRef() Context {
	d.refs.add()
	return d
}

// Release drops one reference. The last release drops the payload and the
// property list.
func (d *Data) Release() bool {
	return d.refs.release(func() {
		d.props.clear()
		d.encoded = nil
		if d.onRelease != nil {
			d.onRelease()
		}
	})
}

// Link aliases another context and carries per-alias metadata.
type Link struct {
	refs  refCount
	base  Context
	owner any

	// Extra is metadata owned by the alias, e.g. a collection list entry.
	Extra any
}

// NewLink returns an alias of base holding one reference. It takes its own
// reference on base, released when the link itself is released.
func NewLink(base Context, owner, extra any) *Link {
	l := &Link{base: base.AddRef(), owner: owner, Extra: extra}
	l.refs.init()
	return l
}

func (l *Link) Kind() Kind                { return l.base.Kind() }
func (l *Link) Encoded() []byte           { return l.base.Encoded() }
func (l *Link) Cert() *x509.Certificate   { return l.base.Cert() }
func (l *Link) Data() *Data               { return l.base.Data() }
func (l *Link) Properties() *PropertyList { return l.base.Properties() }
func (l *Link) Owner() any                { return l.owner }
func (l *Link) Refs() int32               { return l.refs.n.Load() }

// Base returns the directly linked context.
func (l *Link) Base() Context { return l.base }

// AddRef takes one more reference.
func (l *Link) AddRef() Context {
	l.refs.add()
	return l
}

// Release drops one reference; the last one releases the linked context.
func (l *Link) Release() bool {
	return l.refs.release(func() { l.base.Release() })
}

// Unwrap returns the context directly linked by c, or c itself for data contexts.
func Unwrap(c Context) Context {
	if l, ok := c.(*Link); ok {
		return l.base
	}
	return c
}

// Equal reports whether a and b hold the same encoded object.
func Equal(a, b Context) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Data() == b.Data() {
		return true
	}
	return a.Cert().Equal(b.Cert())
}
