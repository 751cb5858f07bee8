// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ctx

import (
	"crypto"
	"slices"
	"strconv"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// implicitSource describes how an absent property is computed.
type implicitSource struct {
	alg   crypto.Hash
	input func(d *Data) []byte
}

var implicitProps = map[PropID]implicitSource{
	PropSHA1Hash:   {alg: crypto.SHA1, input: func(d *Data) []byte { return d.encoded }},
	PropMD5Hash:    {alg: crypto.MD5, input: func(d *Data) []byte { return d.encoded }},
	PropSHA256Hash: {alg: crypto.SHA256, input: func(d *Data) []byte { return d.encoded }},
	PropSubjectNameMD5Hash: {alg: crypto.MD5, input: func(d *Data) []byte {
		return d.cert.RawSubject
	}},
	PropSubjectPublicKeyMD5Hash: {alg: crypto.MD5, input: func(d *Data) []byte {
		return d.cert.RawSubjectPublicKeyInfo
	}},
	PropIssuerSerialNumberMD5Hash: {alg: crypto.MD5, input: func(d *Data) []byte {
		return d.cert.SerialNumber.Bytes()
	}},
}

// IsImplicit reports whether id is computed on demand when absent.
func IsImplicit(id PropID) bool {
	_, ok := implicitProps[id]
	return ok
}

// GetProperty returns the property id of c.
//
// Implicit properties that are not set yet are computed through the crypto
// provider and cached on the data context, becoming visible to every alias.
// Concurrent first reads of the same implicit property compute it once.
func GetProperty(c Context, id PropID) ([]byte, error) {
	if c == nil {
		return nil, trusterr.ErrInvalidParameter
	}
	d := c.Data()
	if v, ok := d.props.Get(id); ok {
		return v, nil
	}

	src, ok := implicitProps[id]
	if !ok {
		return nil, trusterr.ErrNotFound
	}

	v, err, _ := d.implicit.Do(strconv.FormatUint(uint64(id), 10), func() (any, error) {
		if v, ok := d.props.Get(id); ok {
			return v, nil
		}
		sum, err := d.provider.Hash(src.alg, src.input(d))
		if err != nil {
			return nil, err
		}
		d.props.Set(id, sum)
		return sum, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]byte)), nil
}

// GetPropertyInto copies property id of c into buf following the size-query
// convention of [trusterr.CopyOut].
func GetPropertyInto(c Context, id PropID, buf []byte) (int, error) {
	v, err := GetProperty(c, id)
	if err != nil {
		return 0, err
	}
	return trusterr.CopyOut(buf, v)
}

// SetProperty sets property id of c. A nil blob deletes it.
func SetProperty(c Context, id PropID, blob []byte) error {
	if c == nil || id == 0 {
		return trusterr.ErrInvalidParameter
	}
	c.Properties().Set(id, blob)
	return nil
}

// EnumPropertyIDs returns the id that follows after on c, or 0 when done.
// Pass 0 to start.
func EnumPropertyIDs(c Context, after PropID) PropID {
	if c == nil {
		return 0
	}
	return c.Properties().Next(after)
}

// CopyProperties copies every property of from onto to.
func CopyProperties(to, from Context) {
	if to == nil || from == nil {
		return
	}
	to.Properties().CopyFrom(from.Properties())
}

// Hash returns the content hash used for duplicate detection.
func Hash(c Context) ([]byte, error) {
	return GetProperty(c, PropHash)
}
