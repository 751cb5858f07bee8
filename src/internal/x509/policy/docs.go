// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509policy turns the trust status of a built chain into a verdict
// under a named policy.
//
// The built-in policies are [Base], [Authenticode], [SSL] and
// [BasicConstraints]. Other policies are added to a [Registry]:
//
//	v, err := x509policy.Verify(x509policy.Base, cc, nil)
//	if err != nil {
//		return err // unknown policy or bad arguments
//	}
//	if err := v.Err(); err != nil {
//		fmt.Println("chain rejected:", err)
//	}
//
// A verdict names the first problem found together with the chain and
// element that carry it. An element index of -1 means the problem belongs
// to the chain as a whole.
//
// [Authenticode] reports an untrusted root whose key belongs to one of the
// [BuiltinTestRoots] or to a key added with [WithTestRootKeys] as
// [ErrUntrustedTestRoot].
package x509policy
