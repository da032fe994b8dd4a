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

// Package llmresource defines the LLM resource contract `reason()` and
// user-defined LLM-backed resources depend on, plus a deterministic mock
// backend honoring DANA_MOCK_LLM for tests and offline runs.
package llmresource

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dana-lang/dana/pkg/resource"
)

// Resource is the contract an LLM resource instance exposes. The core
// fixes no wire protocol; chat_completion/complete/embed are satisfied
// either by an in-process backend (Mock, or a collaborator's real
// provider binding) or by an out-of-process resource.LoadPlugin backend —
// both implement the same resource.Backend capability interfaces, so
// callers never need to know which.
type Resource interface {
	ChatCompletion(messages []map[string]string, systemPrompt string, ctx map[string]any) (string, error)
	Complete(prompt string, opts map[string]any) (string, error)
	Embed(text string, opts map[string]any) ([]float64, error)
	GetStats() map[string]any
}

// Stats accumulates call counters a backend's GetStats reports.
type Stats struct {
	ChatCalls     int64
	CompleteCalls int64
	EmbedCalls    int64
}

func (s *Stats) asMap() map[string]any {
	return map[string]any{
		"chat_calls":     atomic.LoadInt64(&s.ChatCalls),
		"complete_calls": atomic.LoadInt64(&s.CompleteCalls),
		"embed_calls":    atomic.LoadInt64(&s.EmbedCalls),
	}
}

// MockBackend is the deterministic stand-in DANA_MOCK_LLM selects: no
// network calls, canned responses shaped after the fallback templates a
// real agent uses when its LLM is unreachable, plus a smart yes/no
// heuristic for prompts that read as a yes/no question (so reason()
// results feed naturally into the smart-boolean truthy rule).
type MockBackend struct {
	// AgentName is interpolated into the canned templates; defaults to
	// "dana" when empty.
	AgentName string

	mu    sync.Mutex
	stats Stats
}

var _ resource.Backend = (*MockBackend)(nil)
var _ resource.Chattable = (*MockBackend)(nil)
var _ resource.Completable = (*MockBackend)(nil)
var _ resource.Embeddable = (*MockBackend)(nil)

func (m *MockBackend) Initialize() error { return nil }
func (m *MockBackend) Cleanup() error    { return nil }

func (m *MockBackend) name() string {
	if m.AgentName == "" {
		return "dana"
	}
	return m.AgentName
}

// Chat implements resource.Chattable, answering from the last user
// message's content the way a single-turn chat completion would.
func (m *MockBackend) Chat(messages []map[string]string, systemPrompt string) (string, error) {
	atomic.AddInt64(&m.stats.ChatCalls, 1)
	var last string
	for _, msg := range messages {
		if msg["role"] == "user" {
			last = msg["content"]
		}
	}
	return m.reply(last), nil
}

// Complete implements resource.Completable, the primary path `reason()`
// calls through.
func (m *MockBackend) Complete(prompt string, opts map[string]any) (string, error) {
	atomic.AddInt64(&m.stats.CompleteCalls, 1)
	return m.reply(prompt), nil
}

// Embed implements resource.Embeddable with a cheap deterministic
// pseudo-embedding (byte-length-derived), sufficient for tests that check
// shape/determinism rather than semantic similarity.
func (m *MockBackend) Embed(text string, opts map[string]any) ([]float64, error) {
	atomic.AddInt64(&m.stats.EmbedCalls, 1)
	vec := make([]float64, 8)
	for i := range vec {
		vec[i] = float64((len(text)*31 + i*17) % 97)
	}
	return vec, nil
}

// GetStats returns the call counters accumulated so far.
func (m *MockBackend) GetStats() map[string]any {
	return m.stats.asMap()
}

// reply answers prompt with a fixed template chosen from its shape: a
// yes/no-looking question gets "yes" (the mock always agrees, matching
// the corpus's coercion test fixtures), a numeric-looking prompt echoes a
// number, greetings/name/help prompts get their canned template, anything
// else gets the generic fallback.
func (m *MockBackend) reply(prompt string) string {
	lower := strings.ToLower(strings.TrimSpace(prompt))

	if looksNumeric(lower) {
		return "42"
	}
	if strings.HasSuffix(lower, "?") {
		return "yes"
	}

	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi "):
		return fmt.Sprintf("Hello! I'm %s, ready to assist you.", m.name())
	case strings.Contains(lower, "your name") || strings.Contains(lower, "who are you"):
		return fmt.Sprintf("I'm %s, an AI agent here to help you with your tasks.", m.name())
	case strings.Contains(lower, "help") || strings.Contains(lower, "what can you do"):
		return fmt.Sprintf("I'm %s, and I can help you with problem solving, code generation, and workflow creation.", m.name())
	case strings.Contains(lower, "thank"):
		return "You're welcome! Let me know if there's anything else I can help with."
	case strings.Contains(lower, "bye"):
		return "Goodbye! Feel free to return if you need any assistance."
	default:
		return fmt.Sprintf("I understand you're asking about %q. This is a mock response from %s.", prompt, m.name())
	}
}

func looksNumeric(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		f = strings.Trim(f, "?.,!")
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			return true
		}
	}
	return false
}

// backendResource adapts any resource.Backend satisfying the three
// capability interfaces into the higher-level Resource contract, sharing
// the same instance regardless of whether it is an in-process MockBackend
// or a dispensed resource.LoadedBackend.Backend.
type backendResource struct {
	backend resource.Backend
}

// Wrap adapts backend into Resource. backend must implement
// resource.Chattable, resource.Completable, and resource.Embeddable, plus
// expose GetStats if it wants non-zero statistics reported.
func Wrap(backend resource.Backend) Resource {
	return &backendResource{backend: backend}
}

func (r *backendResource) ChatCompletion(messages []map[string]string, systemPrompt string, ctx map[string]any) (string, error) {
	c, ok := r.backend.(resource.Chattable)
	if !ok {
		return "", fmt.Errorf("resource backend does not support chat_completion")
	}
	return c.Chat(messages, systemPrompt)
}

func (r *backendResource) Complete(prompt string, opts map[string]any) (string, error) {
	c, ok := r.backend.(resource.Completable)
	if !ok {
		return "", fmt.Errorf("resource backend does not support complete")
	}
	return c.Complete(prompt, opts)
}

func (r *backendResource) Embed(text string, opts map[string]any) ([]float64, error) {
	e, ok := r.backend.(resource.Embeddable)
	if !ok {
		return nil, fmt.Errorf("resource backend does not support embed")
	}
	return e.Embed(text, opts)
}

func (r *backendResource) GetStats() map[string]any {
	type statsReporter interface{ GetStats() map[string]any }
	if s, ok := r.backend.(statsReporter); ok {
		return s.GetStats()
	}
	return map[string]any{}
}
