// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"bytes"
	"encoding/pem"
	"io"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/helper/gc"
	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// Format selects the export encoding.
type Format int

const (
	// FormatDER concatenates the DER encodings.
	FormatDER Format = iota
	// FormatPEM writes one CERTIFICATE block per object.
	FormatPEM
)

// WriteTo writes every object of s to w in the given format.
func WriteTo(s Store, w io.Writer, f Format) error {
	var werr error
	err := Walk(s, func(c x509ctx.Context) bool {
		switch f {
		case FormatPEM:
			werr = pem.Encode(w, &pem.Block{Type: "CERTIFICATE", Bytes: c.Encoded()})
		default:
			_, werr = w.Write(c.Encoded())
		}
		return werr == nil
	})
	if err != nil {
		return err
	}
	return werr
}

// Export returns every object of s in the given format.
func Export(s Store, f Format) ([]byte, error) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if err := WriteTo(s, buf, f); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Serialize copies the concatenated DER content of s into dst following the
// size-query convention of [trusterr.CopyOut]: a nil dst returns the size.
func Serialize(s Store, dst []byte) (int, error) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if err := WriteTo(s, buf, FormatDER); err != nil {
		return 0, err
	}
	return trusterr.CopyOut(dst, buf.Bytes())
}

// SerializedSize returns the number of bytes Serialize needs.
func SerializedSize(s Store) (int, error) { return Serialize(s, nil) }
