package logger

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScopeLevel(t *testing.T) {
	cases := map[string]ScopeLevel{
		"local":   ScopeLocal,
		"PRIVATE": ScopePrivate,
		"Public":  ScopePublic,
		"system":  ScopeSystem,
	}
	for in, want := range cases {
		got, err := ParseScopeLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseScopeLevel("nope")
	assert.Error(t, err)
}

func TestRecordScope_DefaultsToSystemWhenAbsent(t *testing.T) {
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	assert.Equal(t, ScopeSystem, recordScope(record))
}

func TestRecordScope_ReadsTaggedValue(t *testing.T) {
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	record.AddAttrs(slog.String(scopeAttrKey, "private"))
	assert.Equal(t, ScopePrivate, recordScope(record))
}

func TestFilteringHandler_SuppressesBelowMinScope(t *testing.T) {
	var buf bytes.Buffer
	SetLevel(slog.LevelDebug)
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := &filteringHandler{handler: base}

	SetMinScope(ScopePublic)
	defer SetMinScope(ScopeLocal)

	l := slog.New(h)
	WithScope(l, ScopeLocal).Info("quiet")
	assert.Empty(t, buf.String())

	WithScope(l, ScopeSystem).Info("loud")
	assert.Contains(t, buf.String(), "loud")
}
