// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain builds and scores [X.509] certificate chains against a
// set of trust stores.
//
// An [Engine] searches a world store (root, CA, personal and trust stores
// plus any additional ones) for the issuers of a leaf certificate. Each
// candidate path is validated from the root toward the leaf for time
// validity, signatures and basic constraints. Other issuer choices are
// explored as alternates and the highest quality chain becomes primary:
//
//	engine, err := x509chain.NewEngine(x509chain.EngineConfig{Root: roots, CA: intermediates})
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	cc, err := engine.BuildChain(ctx, leaf, time.Time{}, nil, 0)
//	if err != nil {
//		return err
//	}
//	defer cc.Free()
//	fmt.Print(cc.Primary().RenderASCIITree())
//
// Trust problems never fail a build. They are reported as [TrustError] bits
// on each [Element], on each [SimpleChain] and on the [ChainContext].
//
// With [RetrieveIssuers] a missing issuer is downloaded from the issued
// certificate's authority information access URLs and kept in the engine's
// fetched store, so later builds resolve it without another round trip.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509chain
