package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, dir, name, src string) {
	t.Helper()
	path := filepath.Join(dir, name+".na")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func noopExecutor(mod *Module) error { return nil }

func TestLoader_LoadsOnce(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "greeter", "private:message = \"hi\"\n")

	calls := 0
	l := NewLoader([]string{dir})
	l.Execute = func(mod *Module) error {
		calls++
		mod.Public["message"] = "hi"
		return nil
	}

	mod1, err := l.Load("greeter")
	require.NoError(t, err)
	mod2, err := l.Load("greeter")
	require.NoError(t, err)

	assert.Same(t, mod1, mod2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusLoaded, mod1.Status)
}

func TestLoader_NotFound(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader([]string{dir})
	l.Execute = noopExecutor

	_, err := l.Load("nope")
	require.Error(t, err)
}

func TestLoader_CycleDetected(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "a", "import b\n")
	writeModule(t, dir, "b", "import a\n")

	l := NewLoader([]string{dir})
	l.Execute = func(mod *Module) error {
		switch mod.Name {
		case "a":
			_, err := l.Load("b")
			return err
		case "b":
			_, err := l.Load("a")
			return err
		}
		return nil
	}

	_, err := l.Load("a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import cycle detected")
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestLoader_SearchPathOrder(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	writeModule(t, dir2, "only_in_two", "private:x = 1\n")

	l := NewLoader([]string{dir1, dir2})
	l.Execute = noopExecutor

	mod, err := l.Load("only_in_two")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir2, "only_in_two.na"), mod.Path)
}

func TestLoader_Clear(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m", "private:x = 1\n")

	l := NewLoader([]string{dir})
	calls := 0
	l.Execute = func(mod *Module) error {
		calls++
		return nil
	}

	_, err := l.Load("m")
	require.NoError(t, err)
	l.Clear()
	_, err = l.Load("m")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
