// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ctx_test

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/testpki"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

func newData(t *testing.T, opts ...x509ctx.DataOption) *x509ctx.Data {
	t.Helper()
	root := testpki.Root(t, "Context Test Root")
	d, err := x509ctx.NewData(x509certs.New(), root.Cert.Raw, opts...)
	require.NoError(t, err)
	return d
}

func TestNewData(t *testing.T) {
	root := testpki.Root(t, "Encoding Root")
	leaf := testpki.Leaf(t, "encoding.example", root)
	pemRoot := x509certs.New().EncodePEM(root.Cert)

	tests := []struct {
		name    string
		encoded []byte
		wantErr error
	}{
		{name: "empty input", encoded: nil, wantErr: trusterr.ErrInvalidParameter},
		{name: "garbage", encoded: []byte{0x01, 0x02, 0x03}, wantErr: trusterr.ErrBadEncode},
		{name: "PEM", encoded: pemRoot, wantErr: trusterr.ErrBadEncode},
		{name: "concatenated DER", encoded: append(append([]byte{}, root.Cert.Raw...), leaf.Cert.Raw...), wantErr: trusterr.ErrBadEncode},
		{name: "trailing byte", encoded: append(append([]byte{}, root.Cert.Raw...), 0x00), wantErr: trusterr.ErrBadEncode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := x509ctx.NewData(x509certs.New(), tt.encoded)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("valid", func(t *testing.T) {
		d := newData(t)
		assert.Equal(t, x509ctx.KindCertificate, d.Kind())
		assert.Equal(t, int32(1), d.Refs())
		assert.Equal(t, d.Cert().Raw, d.Encoded())
		assert.Same(t, d, d.Data())
		assert.True(t, d.Release())
	})

	t.Run("encoding round-trips", func(t *testing.T) {
		d, err := x509ctx.NewData(x509certs.New(), root.Cert.Raw)
		require.NoError(t, err)
		defer d.Release()
		assert.Equal(t, root.Cert.Raw, d.Encoded())
	})

	t.Run("reserved kinds", func(t *testing.T) {
		_, err := x509ctx.NewCRLData(x509certs.New(), []byte{1})
		assert.ErrorIs(t, err, trusterr.ErrNotImplemented)
		_, err = x509ctx.NewCTLData(x509certs.New(), []byte{1})
		assert.ErrorIs(t, err, trusterr.ErrNotImplemented)
	})
}

func TestRefCount(t *testing.T) {
	var released atomic.Int32
	d := newData(t, x509ctx.WithReleaseHook(func() { released.Add(1) }))

	for range 3 {
		d.AddRef()
	}
	assert.Equal(t, int32(4), d.Refs())

	for range 3 {
		assert.False(t, d.Release())
	}
	assert.Zero(t, released.Load())

	assert.True(t, d.Release())
	assert.Equal(t, int32(1), released.Load())
	assert.Nil(t, d.Encoded(), "payload must be dropped with the last reference")

	assert.Panics(t, func() { d.Release() })
	assert.Panics(t, func() { d.AddRef() })
	assert.Equal(t, int32(1), released.Load())
}

func TestRefCount_Concurrent(t *testing.T) {
	var released atomic.Int32
	d := newData(t, x509ctx.WithReleaseHook(func() { released.Add(1) }))

	const goroutines = 64
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				d.AddRef()
				d.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), d.Refs())
	assert.Zero(t, released.Load())
	assert.True(t, d.Release())
	assert.Equal(t, int32(1), released.Load())
}

func TestLink(t *testing.T) {
	var released atomic.Int32
	d := newData(t, x509ctx.WithReleaseHook(func() { released.Add(1) }))

	owner := &struct{ name string }{"collection"}
	l := x509ctx.NewLink(d, owner, "entry")
	assert.Equal(t, int32(2), d.Refs(), "link holds its own reference on the base")
	assert.Same(t, d, l.Data())
	assert.Same(t, d, x509ctx.Unwrap(l))
	assert.Equal(t, owner, l.Owner())
	assert.Equal(t, "entry", l.Extra)
	assert.Equal(t, d.Encoded(), l.Encoded())

	// Nested link resolves to the same canonical data.
	outer := x509ctx.NewLink(l, nil, nil)
	assert.Same(t, d, outer.Data())
	assert.Same(t, l, x509ctx.Unwrap(outer))

	assert.False(t, d.Release())
	assert.True(t, outer.Release())
	assert.Zero(t, released.Load())
	assert.True(t, l.Release())
	assert.Equal(t, int32(1), released.Load(), "releasing the last link releases the base")
}

func TestPropertiesVisibleThroughAliases(t *testing.T) {
	d := newData(t)
	defer d.Release()

	l := x509ctx.NewLink(d, nil, nil)
	defer l.Release()

	require.NoError(t, x509ctx.SetProperty(l, x509ctx.PropFriendlyName, []byte("via link")))
	v, err := x509ctx.GetProperty(d, x509ctx.PropFriendlyName)
	require.NoError(t, err)
	assert.Equal(t, []byte("via link"), v)

	require.NoError(t, x509ctx.SetProperty(d, x509ctx.PropFriendlyName, nil))
	_, err = x509ctx.GetProperty(l, x509ctx.PropFriendlyName)
	assert.ErrorIs(t, err, trusterr.ErrNotFound)
}

func TestImplicitProperties(t *testing.T) {
	d := newData(t)
	defer d.Release()
	cert := d.Cert()

	sha1Sum := sha1.Sum(cert.Raw)
	md5Sum := md5.Sum(cert.Raw)
	sha256Sum := sha256.Sum256(cert.Raw)
	subjectSum := md5.Sum(cert.RawSubject)
	keySum := md5.Sum(cert.RawSubjectPublicKeyInfo)
	serialSum := md5.Sum(cert.SerialNumber.Bytes())

	tests := []struct {
		id   x509ctx.PropID
		want []byte
	}{
		{x509ctx.PropSHA1Hash, sha1Sum[:]},
		{x509ctx.PropMD5Hash, md5Sum[:]},
		{x509ctx.PropSHA256Hash, sha256Sum[:]},
		{x509ctx.PropSubjectNameMD5Hash, subjectSum[:]},
		{x509ctx.PropSubjectPublicKeyMD5Hash, keySum[:]},
		{x509ctx.PropIssuerSerialNumberMD5Hash, serialSum[:]},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			assert.True(t, x509ctx.IsImplicit(tt.id))
			got, err := x509ctx.GetProperty(d, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Cached after the first read.
			_, ok := d.Properties().Get(tt.id)
			assert.True(t, ok)
		})
	}

	t.Run("hash is sha1", func(t *testing.T) {
		h, err := x509ctx.Hash(d)
		require.NoError(t, err)
		assert.Equal(t, sha1Sum[:], h)
	})

	t.Run("unknown id", func(t *testing.T) {
		assert.False(t, x509ctx.IsImplicit(x509ctx.PropSignatureHash))
		_, err := x509ctx.GetProperty(d, x509ctx.PropSignatureHash)
		assert.ErrorIs(t, err, trusterr.ErrNotFound)
	})

	t.Run("returned blob is a copy", func(t *testing.T) {
		got, err := x509ctx.GetProperty(d, x509ctx.PropSHA1Hash)
		require.NoError(t, err)
		got[0] ^= 0xff
		again, err := x509ctx.GetProperty(d, x509ctx.PropSHA1Hash)
		require.NoError(t, err)
		assert.Equal(t, sha1Sum[:], again)
	})
}

func TestImplicitProperties_ConcurrentFirstRead(t *testing.T) {
	d := newData(t)
	defer d.Release()
	want := sha256.Sum256(d.Encoded())

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := x509ctx.GetProperty(d, x509ctx.PropSHA256Hash)
			assert.NoError(t, err)
			assert.Equal(t, want[:], got)
		}()
	}
	wg.Wait()
}

func TestGetPropertyInto(t *testing.T) {
	d := newData(t)
	defer d.Release()

	n, err := x509ctx.GetPropertyInto(d, x509ctx.PropSHA1Hash, nil)
	require.NoError(t, err)
	assert.Equal(t, sha1.Size, n)

	short := make([]byte, n-1)
	_, err = x509ctx.GetPropertyInto(d, x509ctx.PropSHA1Hash, short)
	var more *trusterr.MoreDataError
	require.ErrorAs(t, err, &more)
	assert.Equal(t, sha1.Size, more.Required)
	assert.ErrorIs(t, err, trusterr.ErrMoreData)

	buf := make([]byte, n)
	got, err := x509ctx.GetPropertyInto(d, x509ctx.PropSHA1Hash, buf)
	require.NoError(t, err)
	assert.Equal(t, n, got)
	want := sha1.Sum(d.Encoded())
	assert.Equal(t, want[:], buf)
}

func TestSetProperty_Invalid(t *testing.T) {
	d := newData(t)
	defer d.Release()

	assert.ErrorIs(t, x509ctx.SetProperty(nil, x509ctx.PropFriendlyName, []byte("x")), trusterr.ErrInvalidParameter)
	assert.ErrorIs(t, x509ctx.SetProperty(d, 0, []byte("x")), trusterr.ErrInvalidParameter)
	_, err := x509ctx.GetProperty(nil, x509ctx.PropSHA1Hash)
	assert.ErrorIs(t, err, trusterr.ErrInvalidParameter)
}

func TestClone(t *testing.T) {
	d := newData(t)
	defer d.Release()
	require.NoError(t, x509ctx.SetProperty(d, x509ctx.PropFriendlyName, []byte("orig")))

	c := d.Clone()
	defer c.Release()

	assert.NotSame(t, d, c)
	assert.Equal(t, int32(1), c.Refs())
	assert.True(t, x509ctx.Equal(d, c))

	v, err := x509ctx.GetProperty(c, x509ctx.PropFriendlyName)
	require.NoError(t, err)
	assert.Equal(t, []byte("orig"), v)

	require.NoError(t, x509ctx.SetProperty(c, x509ctx.PropFriendlyName, []byte("clone")))
	v, err = x509ctx.GetProperty(d, x509ctx.PropFriendlyName)
	require.NoError(t, err)
	assert.Equal(t, []byte("orig"), v, "clone properties are independent")
}

func TestEqual(t *testing.T) {
	a := newData(t)
	defer a.Release()
	b := newData(t)
	defer b.Release()

	assert.True(t, x509ctx.Equal(a, a))
	assert.False(t, x509ctx.Equal(a, b))
	assert.False(t, x509ctx.Equal(a, nil))
	assert.True(t, x509ctx.Equal(nil, nil))
}

func TestCopyPropertiesAndEnum(t *testing.T) {
	src := newData(t)
	defer src.Release()
	dst := newData(t)
	defer dst.Release()

	require.NoError(t, x509ctx.SetProperty(src, x509ctx.PropFriendlyName, []byte("a")))
	require.NoError(t, x509ctx.SetProperty(src, x509ctx.PropKeySpec, []byte{1}))
	x509ctx.CopyProperties(dst, src)

	var ids []x509ctx.PropID
	for id := x509ctx.EnumPropertyIDs(dst, 0); id != 0; id = x509ctx.EnumPropertyIDs(dst, id) {
		ids = append(ids, id)
	}
	assert.Equal(t, []x509ctx.PropID{x509ctx.PropFriendlyName, x509ctx.PropKeySpec}, ids)
	assert.Zero(t, x509ctx.EnumPropertyIDs(nil, 0))
}
