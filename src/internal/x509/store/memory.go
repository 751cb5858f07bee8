// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"container/list"
	"crypto/x509"
	"sync"

	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// Memory is an ordered in-memory store.
//
// It owns one reference on every context it holds. Enumeration order is
// insertion order; a replaced context keeps its predecessor's position.
type Memory struct {
	base

	mu    sync.Mutex
	items *list.List
	index map[*x509ctx.Data]*list.Element

	// changed is called after every successful mutation.
	changed func()
}

// NewMemory returns an empty memory store.
func NewMemory(opts ...Option) *Memory {
	return newMemory(KindMemory, opts)
}

// NewMemoryFrom returns a memory store preloaded with certs in order.
// Duplicates are dropped. Loading ignores [WithReadOnly], so it is the way
// to build a read-only store with content.
func NewMemoryFrom(certs []*x509.Certificate, opts ...Option) (*Memory, error) {
	m := newMemory(KindMemory, opts)
	seen := make(map[string]bool, len(certs))
	for _, cert := range certs {
		d, err := x509ctx.FromCertificate(cert, x509ctx.WithProvider(m.opts.provider))
		if err != nil {
			m.Close()
			return nil, err
		}
		h, err := x509ctx.Hash(d)
		if err != nil {
			d.Release()
			m.Close()
			return nil, err
		}
		if seen[string(h)] {
			d.Release()
			continue
		}
		seen[string(h)] = true
		m.insert(d)
	}
	return m, nil
}

func newMemory(kind Kind, opts []Option) *Memory {
	m := &Memory{
		items:   list.New(),
		index:   make(map[*x509ctx.Data]*list.Element),
		changed: func() {},
	}
	m.base.setup(kind, opts)
	return m
}

// AddContext inserts a fresh copy of c, replacing replace in place when it
// belongs to this store.
func (m *Memory) AddContext(c, replace x509ctx.Context) (x509ctx.Context, error) {
	if c == nil {
		return nil, trusterr.ErrInvalidParameter
	}
	if m.opts.readOnly {
		return nil, trusterr.ErrAccessDenied
	}

	d := c.Data().Clone(x509ctx.WithProvider(m.opts.provider))
	d.SetOwner(m)

	var old *x509ctx.Data
	m.mu.Lock()
	if el, ok := m.lookup(replace); ok {
		old = el.Value.(*x509ctx.Data)
		m.index[d] = m.items.InsertBefore(d, el)
		m.items.Remove(el)
		delete(m.index, old)
	} else {
		m.index[d] = m.items.PushBack(d)
	}
	m.mu.Unlock()

	if old != nil {
		old.Release()
	}
	m.opts.log.Debugf("store %s: added %s", m.Name(), d.Cert().Subject)
	m.changed()
	return d.AddRef(), nil
}

// insert appends d, taking over the caller's reference.
func (m *Memory) insert(d *x509ctx.Data) {
	d.SetOwner(m)
	m.mu.Lock()
	m.index[d] = m.items.PushBack(d)
	m.mu.Unlock()
}

func (m *Memory) lookup(c x509ctx.Context) (*list.Element, bool) {
	if c == nil {
		return nil, false
	}
	el, ok := m.index[c.Data()]
	return el, ok
}

// Enum returns the context after prev.
func (m *Memory) Enum(prev x509ctx.Context) (x509ctx.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var el *list.Element
	if prev == nil {
		el = m.items.Front()
	} else {
		if prev.Data().Owner() != m {
			prev.Release()
			return nil, trusterr.ErrInvalidParameter
		}
		cur, ok := m.lookup(prev)
		prev.Release()
		if !ok {
			return nil, ErrStaleContext
		}
		el = cur.Next()
	}
	if el == nil {
		return nil, trusterr.ErrNotFound
	}
	return el.Value.(*x509ctx.Data).AddRef(), nil
}

// Delete removes c.
func (m *Memory) Delete(c x509ctx.Context) error {
	if c == nil {
		return trusterr.ErrInvalidParameter
	}
	if m.opts.readOnly {
		return trusterr.ErrAccessDenied
	}

	m.mu.Lock()
	el, ok := m.lookup(c)
	if !ok {
		m.mu.Unlock()
		return trusterr.ErrNotFound
	}
	d := el.Value.(*x509ctx.Data)
	m.items.Remove(el)
	delete(m.index, d)
	m.mu.Unlock()

	d.Release()
	m.changed()
	return nil
}

// Control accepts every command as a no-op.
func (m *Memory) Control(ControlOp, any) error { return nil }

// Len returns the number of contexts held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Len()
}

// Dup takes another reference on m.
func (m *Memory) Dup() Store {
	m.refs.Add(1)
	return m
}

// Close drops one reference; the last one releases every held context.
func (m *Memory) Close() error {
	if !m.drop() {
		return nil
	}
	m.clear()
	return nil
}

// clear releases every held context.
func (m *Memory) clear() {
	m.mu.Lock()
	var held []*x509ctx.Data
	for el := m.items.Front(); el != nil; el = el.Next() {
		held = append(held, el.Value.(*x509ctx.Data))
	}
	m.items.Init()
	clear(m.index)
	m.mu.Unlock()

	for _, d := range held {
		d.Release()
	}
}

// snapshot returns every held context with an extra reference each.
func (m *Memory) snapshot() []*x509ctx.Data {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*x509ctx.Data, 0, m.items.Len())
	for el := m.items.Front(); el != nil; el = el.Next() {
		d := el.Value.(*x509ctx.Data)
		d.AddRef()
		out = append(out, d)
	}
	return out
}
