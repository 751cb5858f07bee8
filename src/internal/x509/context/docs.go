// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509ctx implements the reference-counted trust object shared by
// every store and by the chain engine.
//
// A [Data] context owns the encoded bytes, the decoded [X.509] certificate and
// a [PropertyList]. A [Link] context aliases another context without copying
// its payload and carries its own metadata, such as the collection entry that
// produced it. Links resolve through any number of further links to exactly
// one Data context.
//
// Properties are shared state: setting a property through any alias is
// visible through every other alias of the same Data context. This is how
// implicit properties, such as content hashes, computed once by one holder
// become cached for all holders.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509ctx
