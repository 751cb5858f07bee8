// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ctx

import (
	"fmt"
	"slices"
	"sync"
)

// PropID identifies a context property. Numbering follows the historic
// CERT_*_PROP_ID values so persisted property sets stay portable.
type PropID uint32

const (
	PropKeyProvHandle             PropID = 1
	PropKeyProvInfo               PropID = 2
	PropSHA1Hash                  PropID = 3
	PropMD5Hash                   PropID = 4
	PropKeySpec                   PropID = 6
	PropFriendlyName              PropID = 11
	PropSignatureHash             PropID = 15
	PropSubjectPublicKeyMD5Hash   PropID = 25
	PropIssuerSerialNumberMD5Hash PropID = 28
	PropSubjectNameMD5Hash        PropID = 29

	// PropSHA256Hash has no historic id.
	PropSHA256Hash PropID = 0x8001

	// PropHash is the content hash used for duplicate detection.
	PropHash = PropSHA1Hash
)

var propNames = map[PropID]string{
	PropKeyProvHandle:             "key-prov-handle",
	PropKeyProvInfo:               "key-prov-info",
	PropSHA1Hash:                  "sha1",
	PropMD5Hash:                   "md5",
	PropKeySpec:                   "key-spec",
	PropFriendlyName:              "friendly-name",
	PropSignatureHash:             "signature-hash",
	PropSubjectPublicKeyMD5Hash:   "subject-public-key-md5",
	PropIssuerSerialNumberMD5Hash: "issuer-serial-md5",
	PropSubjectNameMD5Hash:        "subject-name-md5",
	PropSHA256Hash:                "sha256",
}

// String returns a short name for well-known ids and the number otherwise.
func (id PropID) String() string {
	if s, ok := propNames[id]; ok {
		return s
	}
	return fmt.Sprintf("prop(%d)", uint32(id))
}

// PropertyList is an insertion-ordered map from PropID to a byte blob.
//
// PropertyList is safe for concurrent use by multiple goroutines.
type PropertyList struct {
	mu   sync.RWMutex
	ids  []PropID
	vals map[PropID][]byte
}

// NewPropertyList returns an empty list.
func NewPropertyList() *PropertyList {
	return &PropertyList{vals: make(map[PropID][]byte)}
}

// Get returns a copy of the blob stored under id.
func (l *PropertyList) Get(id PropID) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	v, ok := l.vals[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// Set stores a copy of blob under id. A nil blob removes the property.
func (l *PropertyList) Set(id PropID, blob []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.setLocked(id, blob)
}

func (l *PropertyList) setLocked(id PropID, blob []byte) {
	if blob == nil {
		if _, ok := l.vals[id]; ok {
			delete(l.vals, id)
			l.ids = slices.DeleteFunc(l.ids, func(x PropID) bool { return x == id })
		}
		return
	}
	if _, ok := l.vals[id]; !ok {
		l.ids = append(l.ids, id)
	}
	// Empty but non-nil blobs are legal property values.
	l.vals[id] = append(make([]byte, 0, len(blob)), blob...)
}

// Next returns the id following after in insertion order, starting from the
// first id when after is 0. It returns 0 when the list is exhausted or when
// after is not present.
func (l *PropertyList) Next(after PropID) PropID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if after == 0 {
		if len(l.ids) == 0 {
			return 0
		}
		return l.ids[0]
	}
	i := slices.Index(l.ids, after)
	if i < 0 || i+1 >= len(l.ids) {
		return 0
	}
	return l.ids[i+1]
}

// IDs returns a snapshot of the ids in insertion order.
func (l *PropertyList) IDs() []PropID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.ids)
}

// Len returns the number of properties.
func (l *PropertyList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

// CopyFrom sets every property of from on l, overwriting values that share an id.
func (l *PropertyList) CopyFrom(from *PropertyList) {
	if from == nil || from == l {
		return
	}
	from.mu.RLock()
	ids := slices.Clone(from.ids)
	vals := make(map[PropID][]byte, len(ids))
	for _, id := range ids {
		vals[id] = from.vals[id]
	}
	from.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		l.setLocked(id, vals[id])
	}
}

// clear drops every property.
func (l *PropertyList) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = nil
	l.vals = make(map[PropID][]byte)
}
