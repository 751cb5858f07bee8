// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package persist implements durable backends for provider stores.
//
// A backend holds an ordered list of records, each an encoded certificate
// plus its property blobs. Two backends are provided: [Dir] writes one PEM
// file per record with properties carried in PEM headers, and [SQLite] keeps
// records in a single database file. Records are addressed by the SHA-256
// [digest.Digest] of their encoding.
//
// [digest.Digest]: https://pkg.go.dev/github.com/opencontainers/go-digest#Digest
package persist
