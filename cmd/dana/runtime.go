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

package main

import (
	"fmt"
	"os"

	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/concurrency"
	"github.com/dana-lang/dana/pkg/config"
	"github.com/dana-lang/dana/pkg/interpreter"
	"github.com/dana-lang/dana/pkg/metrics"
	"github.com/dana-lang/dana/pkg/module"
)

// buildInterpreter loads cfgPath (empty is fine — Load returns built-in
// defaults), wires a promise limiter and module loader sized from it, and
// returns a ready-to-run Interpreter alongside the Config that built it.
func buildInterpreter(cfgPath string) (*interpreter.Interpreter, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.MockLLM {
		os.Setenv("DANA_MOCK_LLM", "true")
	}

	limiter := concurrency.NewPromiseLimiter(
		cfg.Limiter.MaxPromises,
		cfg.Limiter.MaxDepth,
		cfg.Limiter.Timeout,
		cfg.Limiter.BreakerThresh,
		cfg.Limiter.BreakerWindow,
	)
	concurrency.SetGlobalPromiseLimiter(limiter)

	loader := module.NewLoader(cfg.SearchPath)
	m := metrics.New(limiter)

	interp, err := interpreter.New(interpreter.Config{
		Strategy: coercion.ParseStrategy(cfg.Coercion),
		Limiter:  limiter,
		Loader:   loader,
		Metrics:  m,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building interpreter: %w", err)
	}
	return interp, cfg, nil
}
