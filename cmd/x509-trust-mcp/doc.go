// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Command x509-trust-mcp serves the X.509 trust store to MCP clients over
// standard input and output.
//
// Usage:
//
//	x509-trust-mcp [--config FILE] [--instructions]
//
// The configuration file names the source of each system store (memory,
// dir, sqlite or file). Without one, X509_TRUST_CONFIG_FILE is consulted,
// and without that every store is an empty memory store.
//
// Example client configuration:
//
//	{
//	  "mcpServers": {
//	    "x509-trust": {
//	      "command": "x509-trust-mcp",
//	      "env": {"X509_TRUST_CONFIG_FILE": "/etc/x509-trust/config.yaml"}
//	    }
//	  }
//	}
package main
