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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "dana.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "dana.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "enhanced", cfg.Coercion)
	assert.Equal(t, []string{"."}, cfg.SearchPath)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "enhanced", cfg.Coercion)
}

func TestLoadParsesManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
coercion: loose
search_path:
  - ./lib
  - ./vendor
log:
  level: debug
  format: verbose
mock_llm: true
limiter:
  max_promises: 128
  timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "loose", cfg.Coercion)
	assert.Equal(t, []string{"./lib", "./vendor"}, cfg.SearchPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "verbose", cfg.Log.Format)
	assert.True(t, cfg.MockLLM)
	assert.Equal(t, 128, cfg.Limiter.MaxPromises)
	assert.Equal(t, 5_000_000_000, int(cfg.Limiter.Timeout))
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("DANA_TEST_LEVEL", "warn")
	path := writeManifest(t, t.TempDir(), `
log:
  level: ${DANA_TEST_LEVEL}
  format: ${DANA_TEST_FORMAT:-simple}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "simple", cfg.Log.Format)
}

func TestLoadRejectsInvalidCoercion(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "coercion: bogus\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRecordsSourcePath(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "coercion: loose\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.SourcePath())
}

func TestLoadMissingFileLeavesSourcePathEmpty(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "dana.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.SourcePath())
}

func TestEnvOverridesManifest(t *testing.T) {
	t.Setenv("DANA_COERCION", "none")
	path := writeManifest(t, t.TempDir(), "coercion: loose\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Coercion)
}
