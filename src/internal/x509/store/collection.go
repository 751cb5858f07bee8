// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"errors"
	"slices"
	"sync"

	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// UpdateFlags control which operations a collection forwards to a sibling.
type UpdateFlags uint32

const (
	// AddEnable lets the collection route adds to the sibling.
	AddEnable UpdateFlags = 1 << iota
	// RemoveEnable is recorded on the entry for callers. Deletes reach the
	// owning sibling whether or not it is set.
	RemoveEnable
)

// StoreListEntry is one sibling of a collection. Contexts handed out by the
// collection are links whose Extra field points at the entry they came from.
type StoreListEntry struct {
	Store    Store
	Flags    UpdateFlags
	Priority uint32
}

// Collection is an ordered view over sibling stores.
//
// The collection lock is always taken before any sibling lock.
type Collection struct {
	base

	mu      sync.Mutex
	entries []*StoreListEntry
}

// NewCollection returns a collection without siblings.
func NewCollection(opts ...Option) *Collection {
	c := &Collection{}
	c.base.setup(KindCollection, opts)
	return c
}

// AddStore adds sibling with the given flags. A non-zero priority inserts it
// before the first entry of lower priority; priority zero appends.
func (c *Collection) AddStore(sibling Store, flags UpdateFlags, priority uint32) error {
	if sibling == nil {
		return trusterr.ErrInvalidParameter
	}
	if sibling == Store(c) {
		return trusterr.ErrInvalidParameter
	}

	entry := &StoreListEntry{Store: sibling.Dup(), Flags: flags, Priority: priority}

	c.mu.Lock()
	defer c.mu.Unlock()

	at := len(c.entries)
	if priority > 0 {
		for i, e := range c.entries {
			if e.Priority < priority {
				at = i
				break
			}
		}
	}
	c.entries = slices.Insert(c.entries, at, entry)
	c.opts.log.Debugf("collection %s: added sibling %s at %d", c.Name(), sibling.Name(), at)
	return nil
}

// RemoveStore removes sibling and drops the collection's reference on it.
func (c *Collection) RemoveStore(sibling Store) error {
	c.mu.Lock()
	i := slices.IndexFunc(c.entries, func(e *StoreListEntry) bool { return e.Store == sibling })
	if i < 0 {
		c.mu.Unlock()
		return trusterr.ErrNotFound
	}
	entry := c.entries[i]
	c.entries = slices.Delete(c.entries, i, i+1)
	c.mu.Unlock()

	return entry.Store.Close()
}

// Entries returns a snapshot of the sibling list in enumeration order.
func (c *Collection) Entries() []StoreListEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StoreListEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = *e
	}
	return out
}

// wrap links child under entry and hands the caller's child reference to the link.
func (c *Collection) wrap(child x509ctx.Context, entry *StoreListEntry) x509ctx.Context {
	l := x509ctx.NewLink(child, c, entry)
	child.Release()
	return l
}

// entryOf returns the sibling entry a collection link came from.
func (c *Collection) entryOf(ctx x509ctx.Context) (*x509ctx.Link, *StoreListEntry, bool) {
	l, ok := ctx.(*x509ctx.Link)
	if !ok || l.Owner() != c {
		return nil, nil, false
	}
	entry, ok := l.Extra.(*StoreListEntry)
	return l, entry, ok
}

// AddContext adds to the sibling that owns replace, or to the first sibling
// that accepts adds.
func (c *Collection) AddContext(ctx, replace x509ctx.Context) (x509ctx.Context, error) {
	if ctx == nil {
		return nil, trusterr.ErrInvalidParameter
	}
	if c.opts.readOnly {
		return nil, trusterr.ErrAccessDenied
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if l, entry, ok := c.entryOf(replace); ok {
		child, err := entry.Store.AddContext(ctx, l.Base())
		if err != nil {
			return nil, err
		}
		return c.wrap(child, entry), nil
	}

	for _, entry := range c.entries {
		if entry.Flags&AddEnable == 0 {
			continue
		}
		child, err := entry.Store.AddContext(ctx, nil)
		if err != nil {
			return nil, err
		}
		return c.wrap(child, entry), nil
	}
	return nil, trusterr.ErrAccessDenied
}

// Enum walks every sibling in order.
func (c *Collection) Enum(prev x509ctx.Context) (x509ctx.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := 0
	var childPrev x509ctx.Context
	if prev != nil {
		l, entry, ok := c.entryOf(prev)
		if !ok {
			prev.Release()
			return nil, trusterr.ErrInvalidParameter
		}
		start = slices.Index(c.entries, entry)
		if start < 0 {
			prev.Release()
			return nil, ErrStaleContext
		}
		childPrev = l.Base().AddRef()
		prev.Release()
	}

	for i := start; i < len(c.entries); i++ {
		entry := c.entries[i]
		child, err := entry.Store.Enum(childPrev)
		childPrev = nil
		switch {
		case err == nil:
			return c.wrap(child, entry), nil
		case errors.Is(err, ErrStaleContext):
			return nil, err
		case !errors.Is(err, trusterr.ErrNotFound):
			return nil, err
		}
	}
	return nil, trusterr.ErrNotFound
}

// Delete routes the delete to the sibling that produced ctx.
func (c *Collection) Delete(ctx x509ctx.Context) error {
	if ctx == nil {
		return trusterr.ErrInvalidParameter
	}
	if c.opts.readOnly {
		return trusterr.ErrAccessDenied
	}
	l, entry, ok := c.entryOf(ctx)
	if !ok {
		return trusterr.ErrInvalidParameter
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return entry.Store.Delete(l.Base())
}

// Control forwards commit and resync to every sibling.
func (c *Collection) Control(op ControlOp, arg any) error {
	c.mu.Lock()
	siblings := make([]Store, len(c.entries))
	for i, e := range c.entries {
		siblings[i] = e.Store
	}
	c.mu.Unlock()

	var errs []error
	for _, s := range siblings {
		if err := s.Control(op, arg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dup takes another reference on c.
func (c *Collection) Dup() Store {
	c.refs.Add(1)
	return c
}

// Close drops one reference; the last one closes every sibling reference.
func (c *Collection) Close() error {
	if !c.drop() {
		return nil
	}
	c.mu.Lock()
	entries := c.entries
	c.entries = nil
	c.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
