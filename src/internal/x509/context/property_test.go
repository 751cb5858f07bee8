// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyList(t *testing.T) {
	l := NewPropertyList()

	l.Set(PropFriendlyName, []byte("one"))
	l.Set(PropKeySpec, []byte{2})
	l.Set(PropSHA1Hash, []byte{})
	l.Set(PropFriendlyName, []byte("two"))

	assert.Equal(t, []PropID{PropFriendlyName, PropKeySpec, PropSHA1Hash}, l.IDs(),
		"overwrite keeps the original position")
	assert.Equal(t, 3, l.Len())

	v, ok := l.Get(PropFriendlyName)
	assert.True(t, ok)
	assert.Equal(t, []byte("two"), v)

	v, ok = l.Get(PropSHA1Hash)
	assert.True(t, ok, "empty blobs are stored")
	assert.Empty(t, v)

	l.Set(PropKeySpec, nil)
	_, ok = l.Get(PropKeySpec)
	assert.False(t, ok)
	assert.Equal(t, []PropID{PropFriendlyName, PropSHA1Hash}, l.IDs())
}

func TestPropertyList_Next(t *testing.T) {
	l := NewPropertyList()
	assert.Zero(t, l.Next(0))

	for _, id := range []PropID{PropMD5Hash, PropFriendlyName, PropSHA256Hash} {
		l.Set(id, []byte{1})
	}

	tests := []struct {
		after PropID
		want  PropID
	}{
		{0, PropMD5Hash},
		{PropMD5Hash, PropFriendlyName},
		{PropFriendlyName, PropSHA256Hash},
		{PropSHA256Hash, 0},
		{PropKeySpec, 0},
	}
	for _, tt := range tests {
		t.Run(tt.after.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, l.Next(tt.after))
		})
	}
}

func TestPropertyList_Isolation(t *testing.T) {
	l := NewPropertyList()
	in := []byte("abc")
	l.Set(PropFriendlyName, in)
	in[0] = 'x'

	out, _ := l.Get(PropFriendlyName)
	assert.Equal(t, []byte("abc"), out)
	out[0] = 'y'

	again, _ := l.Get(PropFriendlyName)
	assert.Equal(t, []byte("abc"), again)
}

func TestPropertyList_CopyFromAndClear(t *testing.T) {
	a, b := NewPropertyList(), NewPropertyList()
	a.Set(PropFriendlyName, []byte("a"))
	b.Set(PropKeySpec, []byte{1})
	b.Set(PropFriendlyName, []byte("b"))

	a.CopyFrom(b)
	a.CopyFrom(a)
	a.CopyFrom(nil)

	assert.Equal(t, []PropID{PropFriendlyName, PropKeySpec}, a.IDs())
	v, _ := a.Get(PropFriendlyName)
	assert.Equal(t, []byte("b"), v)

	a.clear()
	assert.Zero(t, a.Len())
	assert.Zero(t, a.Next(0))
}

func TestPropIDString(t *testing.T) {
	assert.Equal(t, "sha1", PropHash.String())
	assert.Equal(t, "prop(77)", PropID(77).String())
}
