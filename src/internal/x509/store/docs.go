// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509store implements certificate stores.
//
// Three kinds share the [Store] interface:
//
//   - [Memory] keeps an insertion-ordered list of contexts.
//   - [Collection] presents several sibling stores as one. Contexts it returns
//     are links that remember the sibling they came from, so deletes and
//     replacements reach the right sibling.
//   - [Provider] is a memory store loaded from and committed to a
//     [persist.Backend].
//
// [Add] implements the add dispositions on top of [Store.AddContext], and
// [Walk], [Find] and the Find helpers implement lookups on top of
// [Store.Enum]. Enum consumes the reference on its prev argument so that a
// plain loop leaks nothing:
//
//	var c x509ctx.Context
//	for {
//		next, err := s.Enum(c)
//		if err != nil {
//			break // trusterr.ErrNotFound at the end
//		}
//		c = next
//	}
//
// [persist.Backend]: https://pkg.go.dev/github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store/persist#Backend
package x509store
