// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"

	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// Add inserts c into s according to disp and returns the store's context.
//
// Duplicates are detected by [x509ctx.Hash]. The returned context carries a
// reference owned by the caller; c is not consumed.
func Add(s Store, c x509ctx.Context, disp Disposition) (x509ctx.Context, error) {
	if s == nil || c == nil {
		return nil, trusterr.ErrInvalidParameter
	}
	if _, ok := dispositionNames[disp]; !ok {
		return nil, fmt.Errorf("%w: disposition %d", trusterr.ErrInvalidParameter, int(disp))
	}

	var existing x509ctx.Context
	if disp != AlwaysAdd {
		h, err := x509ctx.Hash(c)
		if err != nil {
			return nil, err
		}
		existing, err = FindByHash(s, h)
		if err != nil && !errors.Is(err, trusterr.ErrNotFound) {
			return nil, err
		}
	}

	switch disp {
	case AddNew:
		if existing != nil {
			existing.Release()
			return nil, trusterr.ErrExists
		}
	case ReplaceExisting:
		if existing != nil {
			defer existing.Release()
			return s.AddContext(c, existing)
		}
	case ReplaceExistingInheritProperties:
		if existing != nil {
			defer existing.Release()
			merged := c.Data().Clone()
			defer merged.Release()
			x509ctx.CopyProperties(merged, existing)
			return s.AddContext(merged, existing)
		}
	case UseExisting:
		if existing != nil {
			x509ctx.CopyProperties(existing, c)
			return existing, nil
		}
	}
	return s.AddContext(c, nil)
}

// AddEncodedObject parses encoded, a single DER certificate, and adds it to s.
// Bundles are rejected with [trusterr.ErrBadEncode]; split them with
// [x509certs.Certificate.DecodeMultiple] and use [AddCertificate].
func AddEncodedObject(s Store, codec x509ctx.Codec, encoded []byte, disp Disposition) (x509ctx.Context, error) {
	d, err := x509ctx.NewData(codec, encoded)
	if err != nil {
		return nil, err
	}
	defer d.Release()
	return Add(s, d, disp)
}

// AddCertificate adds an already decoded certificate to s.
func AddCertificate(s Store, cert *x509.Certificate, disp Disposition) (x509ctx.Context, error) {
	d, err := x509ctx.FromCertificate(cert)
	if err != nil {
		return nil, err
	}
	defer d.Release()
	return Add(s, d, disp)
}

// Find returns the first context after prev for which match holds.
// It consumes prev like [Store.Enum] and returns [trusterr.ErrNotFound]
// once the store is exhausted.
func Find(s Store, prev x509ctx.Context, match func(x509ctx.Context) bool) (x509ctx.Context, error) {
	cur := prev
	for {
		next, err := s.Enum(cur)
		if err != nil {
			return nil, err
		}
		if match(next) {
			return next, nil
		}
		cur = next
	}
}

// FindByHash returns the first context whose content hash equals hash.
func FindByHash(s Store, hash []byte) (x509ctx.Context, error) {
	return Find(s, nil, func(c x509ctx.Context) bool {
		h, err := x509ctx.Hash(c)
		return err == nil && bytes.Equal(h, hash)
	})
}

// FindBySubject returns the next context after prev whose raw subject
// equals rawSubject.
func FindBySubject(s Store, rawSubject []byte, prev x509ctx.Context) (x509ctx.Context, error) {
	return Find(s, prev, func(c x509ctx.Context) bool {
		return bytes.Equal(c.Cert().RawSubject, rawSubject)
	})
}

// Contains reports whether s holds an object with the same content as c.
func Contains(s Store, c x509ctx.Context) (bool, error) {
	h, err := x509ctx.Hash(c)
	if err != nil {
		return false, err
	}
	found, err := FindByHash(s, h)
	if errors.Is(err, trusterr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	found.Release()
	return true, nil
}

// Walk calls fn for every context in s until fn returns false. The context
// passed to fn is only valid during the call; AddRef it to keep it.
func Walk(s Store, fn func(x509ctx.Context) bool) error {
	var cur x509ctx.Context
	for {
		next, err := s.Enum(cur)
		if errors.Is(err, trusterr.ErrNotFound) && !errors.Is(err, ErrStaleContext) {
			return nil
		}
		if err != nil {
			return err
		}
		if !fn(next) {
			next.Release()
			return nil
		}
		cur = next
	}
}

// Count returns the number of contexts in s.
func Count(s Store) (int, error) {
	n := 0
	err := Walk(s, func(x509ctx.Context) bool {
		n++
		return true
	})
	return n, err
}
