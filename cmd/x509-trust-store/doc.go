// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// x509-trust-store manages persistent X.509 certificate stores, builds
// certificate chains against them and verifies those chains under named
// policies.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/x509-trust-store/cmd/x509-trust-store@latest
//
// # Stores
//
// Four system stores take part in chain building: root, ca, my and trust.
// Only certificates in the root store terminate a trusted chain. Each store
// is opened from a source given in the configuration file or on the command
// line:
//
//	--root DIR          directory of serialized records
//	--root FILE.db      SQLite database
//	--root BUNDLE.pem   read-only PEM, DER or PKCS#7 bundle
//
// Stores without a source are empty and live in memory only.
//
// # Commands
//
//	store add FILE... [-s STORE] [-d DISPOSITION]
//	store list [-s STORE]
//	store delete SHA1... [-s STORE]
//	store export [-s STORE] [--der] [-o FILE]
//	chain build FILE... [--at TIME] [--lower-quality] [--retrieve] [--cache]
//	policy verify FILE [-p POLICY] [--server-name NAME] [--allow-unknown-ca]
//
// The first certificate of an input file is the end certificate; any further
// certificates are offered to the engine as untrusted intermediates.
//
// # Examples
//
// Import a root and build a chain against it:
//
//	x509-trust-store store add -s root --root /var/lib/trust/root isrg-root-x1.pem
//	x509-trust-store chain build --root /var/lib/trust/root --retrieve leaf.pem
//
// Verify a server chain:
//
//	x509-trust-store policy verify --root roots.db -p ssl --server-name example.com leaf.pem
//
// Render as JSON:
//
//	x509-trust-store -F json chain build --root roots.db leaf.pem
//
// The configuration file is read from --config or X509_TRUST_CONFIG_FILE and
// may be JSON or YAML.
package main
