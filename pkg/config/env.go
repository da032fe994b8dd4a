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

package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env.local then .env into the process environment,
// before flags or dana.yaml are read, so DANA_* overrides can live in a
// dotfile during development. A missing file is not an error.
func LoadDotEnv() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// applyEnvOverrides implements the documented precedence (CLI flag > env
// var > dana.yaml > built-in default) for the subset of fields a
// DANA_* environment variable can reach; CLI flags are applied by the
// caller on top of the result, after this runs.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("DANA_COERCION"); ok {
		cfg.Coercion = v
	}
	if v, ok := os.LookupEnv("DANA_MOCK_LLM"); ok {
		cfg.MockLLM = v == "true" || v == "1"
	}
	if v, ok := os.LookupEnv("DANA_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("DANA_LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
}
