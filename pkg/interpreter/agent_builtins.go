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

package interpreter

import (
	"fmt"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/corelib"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/registry"
	"github.com/dana-lang/dana/pkg/sandbox"
	"github.com/dana-lang/dana/pkg/types"
)

// maxConversationTurns bounds an agent's default chat memory; a user
// struct field overrides nothing here since this is only consulted when
// no user-defined `chat` method exists.
const maxConversationTurns = 20

// builtinAgentMethod implements the agent method slots every AgentType
// carries (types.AgentMethodNames) when the agent body declares no
// override. Each slot is a thin template over the core `reason` builtin,
// so a mock LLM backend (DANA_MOCK_LLM=true) drives all of them in tests
// the same way it drives a direct `reason()` call.
func (i *Interpreter) builtinAgentMethod(name string, self *types.AgentInstance, ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	switch name {
	case "remember":
		return i.agentRemember(self, args, loc)
	case "recall":
		return i.agentRecall(self, args, loc)
	case "plan":
		return i.agentReason(ctx, self, "Create a short, numbered plan to accomplish the following goal:\n\n%s", args, opts, loc)
	case "solve":
		return i.agentReason(ctx, self, "Solve the following problem and give a direct answer:\n\n%s", args, opts, loc)
	case "reason":
		return i.agentReason(ctx, self, "%s", args, opts, loc)
	case "chat":
		return i.agentChat(ctx, self, args, opts, loc)
	default:
		return nil, errs.New(errs.KindName, "AttributeError", fmt.Sprintf("agent %s has no built-in method %q", self.Type.Name, name), loc)
	}
}

func (i *Interpreter) agentRemember(self *types.AgentInstance, args []any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) < 2 {
		return nil, errs.New(errs.KindType, "TypeError", "remember(key, value) requires two arguments", loc)
	}
	key, ok := args[0].(string)
	if !ok {
		return nil, errs.New(errs.KindType, "TypeError", "remember() key must be a string", loc)
	}
	self.Remember(key, args[1])
	return nil, nil
}

func (i *Interpreter) agentRecall(self *types.AgentInstance, args []any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) < 1 {
		return nil, errs.New(errs.KindType, "TypeError", "recall(key) requires one argument", loc)
	}
	key, ok := args[0].(string)
	if !ok {
		return nil, errs.New(errs.KindType, "TypeError", "recall() key must be a string", loc)
	}
	v, ok := self.Recall(key)
	if !ok {
		return nil, nil
	}
	return v, nil
}

// coreReason looks up the `reason` builtin installed by corelib.RegisterAll
// under the core namespace, so the default agent methods exercise exactly
// the same mock/real backend selection a bare `reason()` call does.
func (i *Interpreter) coreReason() (corelib.Callable, *errs.DanaException) {
	entry, ok := i.Functions.Get(registry.NamespaceCore, "reason")
	if !ok {
		return nil, errs.New(errs.KindFatal, "Fatal", "core builtin \"reason\" is not registered", ast.Location{})
	}
	callable, ok := entry.Callable.(corelib.Callable)
	if !ok {
		return nil, errs.New(errs.KindFatal, "Fatal", "core builtin \"reason\" has a malformed registration", ast.Location{})
	}
	return callable, nil
}

func (i *Interpreter) agentReason(ctx *sandbox.Context, self *types.AgentInstance, template string, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) < 1 {
		return nil, errs.New(errs.KindType, "TypeError", "method requires a prompt or goal argument", loc)
	}
	reason, derr := i.coreReason()
	if derr != nil {
		return nil, derr
	}
	prompt := fmt.Sprintf(template, coercion.ToText(args[0]))
	return reason.Call(ctx, []any{prompt}, opts, loc)
}

func (i *Interpreter) agentChat(ctx *sandbox.Context, self *types.AgentInstance, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) < 1 {
		return nil, errs.New(errs.KindType, "TypeError", "chat(message) requires one argument", loc)
	}
	userInput := coercion.ToText(args[0])
	reason, derr := i.coreReason()
	if derr != nil {
		return nil, derr
	}

	prompt := userInput
	if len(self.Conversation) > 0 {
		prompt = formatConversation(self.Conversation) + "\nuser: " + userInput
	}

	result, derr := reason.Call(ctx, []any{prompt}, opts, loc)
	if derr != nil {
		return nil, derr
	}
	response := coercion.ToText(result)
	self.RecordTurn(userInput, response, maxConversationTurns)
	return result, nil
}

func formatConversation(turns []types.ConversationTurn) string {
	s := ""
	for _, t := range turns {
		s += "user: " + t.UserInput + "\nagent: " + t.AgentResponse + "\n"
	}
	return s
}
