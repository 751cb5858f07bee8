// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package persist

import (
	"cmp"
	"context"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/helper/gc"
)

const (
	pemType      = "CERTIFICATE"
	fileExt      = ".pem"
	headerPrefix = "Property-"
)

// Dir persists records as PEM files in a directory.
//
// Files are named "<sequence>-<sha256 hex>.pem" so a directory listing
// reproduces the saved order. Property blobs travel as base64 PEM headers.
type Dir struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// NewDir returns a backend rooted at path, creating the directory if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create directory %s: %w", path, err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory root.
func (d *Dir) Path() string { return d.path }

// Load reads every record file in sequence order.
func (d *Dir) Load(ctx context.Context) ([]Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	names, err := d.recordFiles()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := readRecord(filepath.Join(d.path, name))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save writes records and removes files that are no longer part of the set.
func (d *Dir) Save(ctx context.Context, records []Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	stale, err := d.recordFiles()
	if err != nil {
		return err
	}

	keep := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := recordName(i, rec.Digest())
		keep[name] = struct{}{}
		if err := writeRecord(filepath.Join(d.path, name), rec); err != nil {
			return err
		}
	}

	for _, name := range stale {
		if _, ok := keep[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("persist: remove %s: %w", name, err)
		}
	}
	return nil
}

// Close marks the backend unusable.
func (d *Dir) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func recordName(seq int, dg digest.Digest) string {
	return fmt.Sprintf("%08d-%s%s", seq, dg.Encoded(), fileExt)
}

// recordFiles lists record files sorted by sequence.
func (d *Dir) recordFiles() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("persist: read directory %s: %w", d.path, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, e.Name())
	}
	// Zero-padded sequence numbers sort lexically.
	slices.Sort(names)
	return names, nil
}

func readRecord(path string) (Record, error) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("persist: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := buf.ReadFrom(f); err != nil {
		return Record{}, fmt.Errorf("persist: read %s: %w", path, err)
	}

	block, _ := pem.Decode(buf.Bytes())
	if block == nil || block.Type != pemType {
		return Record{}, fmt.Errorf("persist: %s: no %s block", path, pemType)
	}

	rec := Record{Encoded: block.Bytes}
	for key, val := range block.Headers {
		idText, ok := strings.CutPrefix(key, headerPrefix)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(idText, 10, 32)
		if err != nil {
			return Record{}, fmt.Errorf("persist: %s: bad property header %q", path, key)
		}
		blob, err := base64.StdEncoding.DecodeString(val)
		if err != nil {
			return Record{}, fmt.Errorf("persist: %s: property %d: %w", path, id, err)
		}
		rec.Properties = append(rec.Properties, Property{ID: uint32(id), Value: blob})
	}
	// Headers come back as a map; restore a stable order.
	slices.SortFunc(rec.Properties, func(a, b Property) int { return cmp.Compare(a.ID, b.ID) })

	if got := rec.Digest(); !strings.Contains(filepath.Base(path), got.Encoded()) {
		return Record{}, fmt.Errorf("persist: %s: content digest %s does not match file name", path, got)
	}
	return rec, nil
}

func writeRecord(path string, rec Record) error {
	block := &pem.Block{Type: pemType, Bytes: rec.Encoded}
	if len(rec.Properties) > 0 {
		block.Headers = make(map[string]string, len(rec.Properties))
		for _, p := range rec.Properties {
			block.Headers[headerPrefix+strconv.FormatUint(uint64(p.ID), 10)] = base64.StdEncoding.EncodeToString(p.Value)
		}
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()
	if err := pem.Encode(buf, block); err != nil {
		return fmt.Errorf("persist: encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("persist: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist: rename %s: %w", tmp, err)
	}
	return nil
}
