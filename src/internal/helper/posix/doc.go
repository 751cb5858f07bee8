// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package posix derives [POSIX]-style program names from os.Args so usage
// strings read the same on every platform.
//
//   - Linux/macOS: "/usr/bin/x509-trust-mcp" gives "x509-trust-mcp"
//   - Windows: "C:\bin\x509-trust-mcp.exe" gives "x509-trust-mcp"
//   - Empty args give the fallback name
//
// [POSIX]: https://grokipedia.com/page/POSIX
package posix
