// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the X.509 trust store.
// It implements a Cobra-based CLI that manages persistent certificate stores,
// builds and scores certificate chains against them, and verifies chains
// under named policies. Results render as an ASCII tree, a markdown table
// or JSON.
package cli
