// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the optional `dana.yaml` project manifest: the
// coercion strategy, module search path, logging setup, mock-LLM switch,
// and promise limiter tuning a `dana` invocation runs with.
package config

import "time"

// LogConfig is the manifest's `log` block. cmd/dana sets up pkg/logger
// from its own command-line flags and does not read these fields.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// LimiterConfig configures a concurrency.PromiseLimiter. Timeout and
// BreakerWindow accept duration strings ("30s", "500ms") in dana.yaml,
// decoded via mapstructure's StringToTimeDurationHookFunc.
type LimiterConfig struct {
	MaxPromises   int           `yaml:"max_promises"`
	MaxDepth      int           `yaml:"max_depth"`
	Timeout       time.Duration `yaml:"timeout"`
	BreakerThresh int           `yaml:"breaker_threshold"`
	BreakerWindow time.Duration `yaml:"breaker_window"`
}

// Config is the decoded shape of a dana.yaml manifest. Every field has a
// zero value that SetDefaults replaces, so an absent manifest (or an
// absent field within one) behaves identically to the built-in defaults.
type Config struct {
	Coercion    string        `yaml:"coercion"`
	SearchPath  []string      `yaml:"search_path"`
	Log         LogConfig     `yaml:"log"`
	MockLLM     bool          `yaml:"mock_llm"`
	Limiter     LimiterConfig `yaml:"limiter"`
	sourcePath  string        // populated by Load; not part of the manifest
}

// SourcePath returns the manifest path Load read this Config from, empty
// if it was built from defaults with no file on disk.
func (c *Config) SourcePath() string { return c.sourcePath }

// SetDefaults fills every unset field with DANA's built-in default,
// mirroring the teacher's Config.SetDefaults.
func (c *Config) SetDefaults() {
	if c.Coercion == "" {
		c.Coercion = "enhanced"
	}
	if len(c.SearchPath) == 0 {
		c.SearchPath = []string{"."}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "simple"
	}
	if c.Limiter.MaxPromises == 0 {
		c.Limiter.MaxPromises = 64
	}
	if c.Limiter.MaxDepth == 0 {
		c.Limiter.MaxDepth = 8
	}
	if c.Limiter.Timeout == 0 {
		c.Limiter.Timeout = 30 * time.Second
	}
	if c.Limiter.BreakerThresh == 0 {
		c.Limiter.BreakerThresh = 5
	}
	if c.Limiter.BreakerWindow == 0 {
		c.Limiter.BreakerWindow = 10 * time.Second
	}
}

// Validate rejects a manifest whose coercion strategy or log format name
// the rest of the stack wouldn't recognize, catching a typo in dana.yaml
// at load time rather than at first use.
func (c *Config) Validate() error {
	switch c.Coercion {
	case "none", "enhanced", "loose":
	default:
		return &InvalidFieldError{Field: "coercion", Value: c.Coercion}
	}
	switch c.Log.Format {
	case "simple", "verbose":
	default:
		return &InvalidFieldError{Field: "log.format", Value: c.Log.Format}
	}
	return nil
}

// InvalidFieldError reports a dana.yaml field holding a value outside
// its recognized set.
type InvalidFieldError struct {
	Field string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return "config: invalid value " + quote(e.Value) + " for " + e.Field
}

func quote(s string) string { return "\"" + s + "\"" }
