// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store/persist"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// Provider is a memory store backed by a persistence backend.
//
// Content is loaded when the store is opened. Changes mark the store dirty
// and are written back on commit or when the last reference is closed.
type Provider struct {
	*Memory

	backend persist.Backend
	dirty   atomic.Bool
}

// OpenProvider opens a store over backend and loads its records.
// Records that fail to decode are skipped and logged.
func OpenProvider(ctx context.Context, backend persist.Backend, opts ...Option) (*Provider, error) {
	if backend == nil {
		return nil, trusterr.ErrInvalidParameter
	}
	p := &Provider{
		Memory:  newMemory(KindProvider, opts),
		backend: backend,
	}
	p.Memory.changed = func() { p.dirty.Store(true) }

	if err := p.load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) load(ctx context.Context) error {
	records, err := p.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("x509store: load %s: %w", p.Name(), err)
	}
	for i, rec := range records {
		d, err := x509ctx.NewData(p.opts.codec, rec.Encoded, x509ctx.WithProvider(p.opts.provider))
		if err != nil {
			p.opts.log.Printf("store %s: skipping record %d: %v", p.Name(), i, err)
			continue
		}
		for _, prop := range rec.Properties {
			d.Properties().Set(x509ctx.PropID(prop.ID), prop.Value)
		}
		p.insert(d)
	}
	p.opts.log.Debugf("store %s: loaded %d records", p.Name(), p.Len())
	return nil
}

// Commit writes the store content to the backend when it changed since the
// last commit, or unconditionally when force is set.
func (p *Provider) Commit(ctx context.Context, force bool) error {
	if p.opts.readOnly {
		return nil
	}
	if !p.dirty.Swap(false) && !force {
		return nil
	}

	held := p.snapshot()
	records := make([]persist.Record, len(held))
	for i, d := range held {
		records[i] = persist.Record{Encoded: d.Encoded()}
		for _, id := range d.Properties().IDs() {
			if v, ok := d.Properties().Get(id); ok {
				records[i].Properties = append(records[i].Properties, persist.Property{ID: uint32(id), Value: v})
			}
		}
	}
	for _, d := range held {
		d.Release()
	}

	if err := p.backend.Save(ctx, records); err != nil {
		p.dirty.Store(true)
		return fmt.Errorf("x509store: commit %s: %w", p.Name(), err)
	}
	return nil
}

// Resync drops the in-memory content and reloads it from the backend.
func (p *Provider) Resync(ctx context.Context) error {
	p.clear()
	p.dirty.Store(false)
	return p.load(ctx)
}

// Dirty reports whether there are uncommitted changes.
func (p *Provider) Dirty() bool { return p.dirty.Load() }

// Control implements [ControlCommit] and [ControlResync]. The argument may
// be a bool force flag for commit or a [context.Context] for either command.
func (p *Provider) Control(op ControlOp, arg any) error {
	ctx := context.Background()
	force := false
	switch v := arg.(type) {
	case context.Context:
		ctx = v
	case bool:
		force = v
	}

	switch op {
	case ControlCommit:
		return p.Commit(ctx, force)
	case ControlResync:
		return p.Resync(ctx)
	}
	return fmt.Errorf("%w: control %d", trusterr.ErrNotImplemented, int(op))
}

// Dup takes another reference on p.
func (p *Provider) Dup() Store {
	p.refs.Add(1)
	return p
}

// Close drops one reference. The last one commits pending changes, closes
// the backend and releases every held context.
func (p *Provider) Close() error {
	if !p.drop() {
		return nil
	}
	err := p.Commit(context.Background(), false)
	p.clear()
	return errors.Join(err, p.backend.Close())
}
