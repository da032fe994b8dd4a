package llmresource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBackend_YesNoQuestion(t *testing.T) {
	m := &MockBackend{}
	reply, err := m.Complete("Should I proceed?", nil)
	require.NoError(t, err)
	assert.Equal(t, "yes", reply)
}

func TestMockBackend_Numeric(t *testing.T) {
	m := &MockBackend{}
	reply, err := m.Complete("What is 6 * 7", nil)
	require.NoError(t, err)
	assert.Equal(t, "42", reply)
}

func TestMockBackend_Greeting(t *testing.T) {
	m := &MockBackend{AgentName: "Ada"}
	reply, err := m.Complete("hello there", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "Ada")
}

func TestMockBackend_StatsAccumulate(t *testing.T) {
	m := &MockBackend{}
	_, _ = m.Complete("hi", nil)
	_, _ = m.Chat([]map[string]string{{"role": "user", "content": "hi"}}, "")
	_, _ = m.Embed("hi", nil)

	stats := m.GetStats()
	assert.EqualValues(t, 1, stats["complete_calls"])
	assert.EqualValues(t, 1, stats["chat_calls"])
	assert.EqualValues(t, 1, stats["embed_calls"])
}

func TestWrap_DelegatesToBackend(t *testing.T) {
	m := &MockBackend{}
	r := Wrap(m)

	text, err := r.Complete("Is this wired?", nil)
	require.NoError(t, err)
	assert.Equal(t, "yes", text)

	stats := r.GetStats()
	assert.EqualValues(t, 1, stats["complete_calls"])
}
