// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"strings"
)

// DefaultName is used when os.Args carries no program name.
const DefaultName = "x509-trust-mcp"

// GetExecutableName returns ExecutableName(DefaultName).
func GetExecutableName() string {
	return ExecutableName(DefaultName)
}

// ExecutableName returns the base name of os.Args[0] without a ".exe"
// suffix. Both '/' and '\' count as separators so a Windows path yields the
// same name on a Unix host.
func ExecutableName(fallback string) string {
	if len(os.Args) == 0 {
		return fallback
	}
	return baseName(os.Args[0], fallback)
}

func baseName(path, fallback string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(parts) == 0 {
		return fallback
	}
	name := strings.TrimSuffix(parts[len(parts)-1], ".exe")
	if name == "" {
		return fallback
	}
	return name
}
