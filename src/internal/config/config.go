// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the trust store configuration shared by the CLI and
// the MCP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
)

// EnvConfigFile names the environment variable consulted when no path is
// given to [Load].
const EnvConfigFile = "X509_TRUST_CONFIG_FILE"

// Output formats.
const (
	FormatTree  = "tree"
	FormatTable = "table"
	FormatJSON  = "json"
)

// format represents supported configuration file formats.
type format int

const (
	formatJSON format = iota
	formatYAML
)

// Source describes where a store comes from.
type Source struct {
	// Kind is one of memory, dir, sqlite or file. A file source loads a PEM,
	// DER or PKCS#7 bundle into a memory store.
	Kind     string `json:"kind" yaml:"kind"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	ReadOnly bool   `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
}

// Config is the trust store configuration.
type Config struct {
	// Engine: chain engine limits
	Engine struct {
		CycleDetectionModulus     int `json:"cycleDetectionModulus" yaml:"cycleDetectionModulus"`
		MaxAlternates             int `json:"maxAlternates" yaml:"maxAlternates"`
		MaximumCachedCertificates int `json:"maximumCachedCertificates" yaml:"maximumCachedCertificates"`
		// URLRetrievalTimeout in seconds
		URLRetrievalTimeout int `json:"urlRetrievalTimeoutSeconds" yaml:"urlRetrievalTimeoutSeconds"`
	} `json:"engine" yaml:"engine"`

	// Stores: the engine's system stores
	Stores struct {
		Root       Source   `json:"root" yaml:"root"`
		CA         Source   `json:"ca" yaml:"ca"`
		My         Source   `json:"my" yaml:"my"`
		Trust      Source   `json:"trust" yaml:"trust"`
		Additional []Source `json:"additional,omitempty" yaml:"additional,omitempty"`
	} `json:"stores" yaml:"stores"`

	// Output: defaults for rendered results
	Output struct {
		// Format is tree, table or json
		Format string `json:"format" yaml:"format"`
	} `json:"output" yaml:"output"`

	// Logging: where diagnostics go
	Logging struct {
		Silent  bool   `json:"silent" yaml:"silent"`
		Verbose bool   `json:"verbose" yaml:"verbose"`
		File    string `json:"file,omitempty" yaml:"file,omitempty"`
	} `json:"logging" yaml:"logging"`
}

// Default returns a configuration with every default applied and memory
// stores throughout.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Engine.CycleDetectionModulus <= 0 {
		c.Engine.CycleDetectionModulus = x509chain.DefaultCycleDetectionModulus
	}
	if c.Engine.MaxAlternates == 0 {
		c.Engine.MaxAlternates = x509chain.DefaultMaxAlternates
	}
	if c.Engine.MaximumCachedCertificates == 0 {
		c.Engine.MaximumCachedCertificates = x509chain.DefaultMaxCachedChains
	}
	if c.Engine.URLRetrievalTimeout <= 0 {
		c.Engine.URLRetrievalTimeout = int(x509chain.DefaultURLRetrievalTimeout / time.Second)
	}
	for _, s := range []*Source{&c.Stores.Root, &c.Stores.CA, &c.Stores.My, &c.Stores.Trust} {
		if s.Kind == "" {
			s.Kind = KindMemory
		}
	}
	switch c.Output.Format {
	case FormatTree, FormatTable, FormatJSON:
	default:
		c.Output.Format = FormatTree
	}
}

// URLRetrievalTimeout returns the engine download timeout as a duration.
func (c *Config) URLRetrievalTimeout() time.Duration {
	return time.Duration(c.Engine.URLRetrievalTimeout) * time.Second
}

func detectFormat(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

func unmarshal(data []byte, c *Config, f format) error {
	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// Load reads the configuration at path, or at $X509_TRUST_CONFIG_FILE when
// path is empty. Without either it returns [Default]. The format follows the
// extension: .yaml and .yml are YAML, anything else is JSON.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := unmarshal(data, c, detectFormat(path)); err != nil {
			return nil, err
		}
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the store sources.
func (c *Config) Validate() error {
	named := []struct {
		name string
		src  Source
	}{
		{"root", c.Stores.Root},
		{"ca", c.Stores.CA},
		{"my", c.Stores.My},
		{"trust", c.Stores.Trust},
	}
	for i, s := range c.Stores.Additional {
		named = append(named, struct {
			name string
			src  Source
		}{fmt.Sprintf("additional[%d]", i), s})
	}
	for _, n := range named {
		if err := n.src.validate(); err != nil {
			return fmt.Errorf("stores.%s: %w", n.name, err)
		}
	}
	return nil
}
