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

// Package coercion implements DANA's type coercion engine: numeric
// mixing, to_text canonicalization, the smart-boolean rule, and the
// LLM-text-to-typed-result pipeline.
package coercion

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/registry"
	"github.com/dana-lang/dana/pkg/types"
)

// Strategy selects how aggressively the engine attempts coercion.
type Strategy int

const (
	// StrategyNone applies no coercion: mismatched operand/arg types fail.
	StrategyNone Strategy = iota
	// StrategyEnhanced is the default: numeric mixing, to_text
	// canonicalization, cross-type comparison, smart booleans.
	StrategyEnhanced
	// StrategyLoose behaves like Enhanced but never fails: a coercion
	// that would error instead returns the original value unchanged.
	StrategyLoose
)

// ParseStrategy converts a dana.yaml/CLI strategy name to a Strategy,
// defaulting unrecognized or empty input to StrategyEnhanced rather than
// failing, since a typo'd coercion setting shouldn't be fatal.
func ParseStrategy(name string) Strategy {
	switch strings.ToLower(name) {
	case "none":
		return StrategyNone
	case "loose":
		return StrategyLoose
	default:
		return StrategyEnhanced
	}
}

// Engine applies coercion rules, consulting typeRegistry to construct
// struct/agent/resource instances from LLM-text JSON payloads.
type Engine struct {
	Strategy Strategy
	Types    *registry.TypeRegistry
}

// New creates an Engine with the given strategy.
func New(strategy Strategy, types *registry.TypeRegistry) *Engine {
	return &Engine{Strategy: strategy, Types: types}
}

// ToText renders v in its canonical text form: numbers use the minimal
// decimal representation, bool becomes "true"/"false", None becomes
// "None", and struct-like values render as "TypeName(field=value, ...)".
func ToText(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// negativeBooleanStrings are the case-insensitive falsy string literals
// the smart-boolean rule recognizes.
var negativeBooleanStrings = map[string]bool{"no": true, "false": true, "0": true, "none": true}

// Truthy applies the smart-boolean rule used for conditions: nonzero
// number; non-empty string except the negative literals ("no", "false",
// "0", "none", case-insensitive); non-empty container; bool as-is.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0
	case string:
		if x == "" {
			return false
		}
		return !negativeBooleanStrings[strings.ToLower(x)]
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func isNumericString(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// Equal implements cross-type equality under Enhanced/Loose strategies:
// numbers compare numerically regardless of int/float kind, and a
// numeric-looking string equals its numeric counterpart; otherwise it
// falls back to strict Go equality.
func (e *Engine) Equal(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		if e.Strategy != StrategyNone {
			if bs, ok := b.(string); ok && isNumericString(bs) {
				bf, _ := strconv.ParseFloat(strings.TrimSpace(bs), 64)
				return af == bf
			}
		}
		return false
	}
	if bf, bok := asFloat(b); bok && e.Strategy != StrategyNone {
		if as, ok := a.(string); ok && isNumericString(as) {
			af, _ := strconv.ParseFloat(strings.TrimSpace(as), 64)
			return af == bf
		}
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// Add implements `+` across DANA's coercion rules: numeric int/float
// mixing promotes to float; string concatenation with a non-string
// canonicalizes the non-string operand via ToText.
func (e *Engine) Add(a, b any, loc ast.Location) (any, *errs.DanaException) {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as + bs, nil
		}
		if e.Strategy == StrategyNone {
			return nil, errs.New(errs.KindType, "TypeError", "cannot add string and non-string without coercion", loc)
		}
		return as + ToText(b), nil
	}
	if bs, ok := b.(string); ok {
		if e.Strategy == StrategyNone {
			return nil, errs.New(errs.KindType, "TypeError", "cannot add non-string and string without coercion", loc)
		}
		return ToText(a) + bs, nil
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			if _, aIsFloat := a.(float64); aIsFloat {
				return af + bf, nil
			}
			if _, bIsFloat := b.(float64); bIsFloat {
				return af + bf, nil
			}
			return toInt(a) + toInt(b), nil
		}
	}
	if e.Strategy == StrategyLoose {
		return a, nil
	}
	return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("unsupported operand types for +: %T and %T", a, b), loc)
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	}
	return 0
}

// arith applies a numeric binary op, promoting to float whenever either
// operand is a float64 and keeping int64 otherwise (the same int/float
// mixing rule Add uses).
func (e *Engine) arith(a, b any, loc ast.Location, opName string, onFloat func(af, bf float64) (any, *errs.DanaException), onInt func(ai, bi int64) (any, *errs.DanaException)) (any, *errs.DanaException) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		if e.Strategy == StrategyLoose {
			return a, nil
		}
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("unsupported operand types for %s: %T and %T", opName, a, b), loc)
	}
	_, aIsFloat := a.(float64)
	_, bIsFloat := b.(float64)
	if aIsFloat || bIsFloat {
		return onFloat(af, bf)
	}
	return onInt(toInt(a), toInt(b))
}

// Sub implements `-`.
func (e *Engine) Sub(a, b any, loc ast.Location) (any, *errs.DanaException) {
	return e.arith(a, b, loc, "-",
		func(af, bf float64) (any, *errs.DanaException) { return af - bf, nil },
		func(ai, bi int64) (any, *errs.DanaException) { return ai - bi, nil })
}

// Mul implements `*`.
func (e *Engine) Mul(a, b any, loc ast.Location) (any, *errs.DanaException) {
	return e.arith(a, b, loc, "*",
		func(af, bf float64) (any, *errs.DanaException) { return af * bf, nil },
		func(ai, bi int64) (any, *errs.DanaException) { return ai * bi, nil })
}

// Div implements `/`, always producing a float (DANA has no separate
// integer-division operator) and raising ZeroDivisionError on a zero
// divisor.
func (e *Engine) Div(a, b any, loc ast.Location) (any, *errs.DanaException) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		if e.Strategy == StrategyLoose {
			return a, nil
		}
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("unsupported operand types for /: %T and %T", a, b), loc)
	}
	if bf == 0 {
		return nil, errs.ZeroDivision(loc)
	}
	return af / bf, nil
}

// Mod implements `%`, keeping int64 results for int/int operands and
// raising ZeroDivisionError on a zero divisor either way.
func (e *Engine) Mod(a, b any, loc ast.Location) (any, *errs.DanaException) {
	return e.arith(a, b, loc, "%",
		func(af, bf float64) (any, *errs.DanaException) {
			if bf == 0 {
				return nil, errs.ZeroDivision(loc)
			}
			return math.Mod(af, bf), nil
		},
		func(ai, bi int64) (any, *errs.DanaException) {
			if bi == 0 {
				return nil, errs.ZeroDivision(loc)
			}
			return ai % bi, nil
		})
}

// Compare implements the ordering used by `< > <= >=`: numeric operands
// compare numerically (following the same numeric-string coercion Equal
// applies under Enhanced/Loose), strings compare lexically. It returns
// -1, 0, or 1, or an error if the operands are not ordered (under
// StrategyLoose, unordered operands return 0 with no error).
func (e *Engine) Compare(a, b any, loc ast.Location) (int, *errs.DanaException) {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		if !bok && e.Strategy != StrategyNone {
			if bs, ok := b.(string); ok && isNumericString(bs) {
				bf, _ = strconv.ParseFloat(strings.TrimSpace(bs), 64)
				bok = true
			}
		}
		if bok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), nil
		}
	}
	if e.Strategy == StrategyLoose {
		return 0, nil
	}
	return 0, errs.New(errs.KindType, "TypeError", fmt.Sprintf("unsupported operand types for comparison: %T and %T", a, b), loc)
}

// maxTextLen bounds the attempted-text snippet a ValueError reports.
const maxTextLen = 120

func truncate(s string) string {
	if len(s) <= maxTextLen {
		return s
	}
	return s[:maxTextLen] + "…"
}

// stripLLMWrapping removes a markdown code fence and a leading
// "FINAL_ANSWER:" prefix before parsing LLM output.
func stripLLMWrapping(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			firstLine := s[:nl]
			if !strings.Contains(firstLine, " ") && len(firstLine) < 20 {
				s = s[nl+1:]
			}
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "FINAL_ANSWER:")
	return strings.TrimSpace(s)
}

// CoerceToType implements the LLM-text-to-typed-result pipeline: strip
// wrapping, parse primitives directly, parse registered struct/agent/
// resource types as JSON objects (recursively coercing fields), and pass
// through unknown target types unchanged.
func (e *Engine) CoerceToType(value any, targetType string, loc ast.Location) (any, *errs.DanaException) {
	if td, ok := e.Types.Get(targetType); ok {
		if inst, matches := matchesInstance(value, td); matches {
			return inst, nil
		}
	}

	text, isString := value.(string)
	if !isString {
		if f, ok := value.(float64); ok && targetType == "int" && f == math.Trunc(f) {
			return int64(f), nil
		}
		return value, nil
	}
	clean := stripLLMWrapping(text)

	switch targetType {
	case "int":
		n, err := strconv.ParseInt(strings.TrimSpace(clean), 10, 64)
		if err != nil {
			if f, ferr := strconv.ParseFloat(strings.TrimSpace(clean), 64); ferr == nil {
				return int64(f), nil
			}
			return e.coercionFailure(value, clean, targetType, loc)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
		if err != nil {
			return e.coercionFailure(value, clean, targetType, loc)
		}
		return f, nil
	case "bool":
		return Truthy(clean), nil
	case "str":
		return clean, nil
	case "":
		return value, nil
	}

	if td, ok := e.Types.Get(targetType); ok {
		inst, derr := e.coerceStructJSON(clean, td, loc)
		if derr != nil {
			if e.Strategy == StrategyLoose {
				return value, nil
			}
			return nil, derr
		}
		return inst, nil
	}

	// Unknown target type: return the original string unchanged.
	return value, nil
}

func matchesInstance(value any, td *types.TypeDescriptor) (any, bool) {
	switch v := value.(type) {
	case *types.StructInstance:
		return v, v.Type == td
	case *types.AgentInstance:
		return v, v.Type == td
	case *types.ResourceInstance:
		return v, v.Type == td
	}
	return nil, false
}

func (e *Engine) coercionFailure(original any, attempted, targetType string, loc ast.Location) (any, *errs.DanaException) {
	if e.Strategy == StrategyLoose {
		return original, nil
	}
	return nil, errs.New(errs.KindCoercion, "ValueError",
		fmt.Sprintf("cannot coerce %q to %s", truncate(attempted), targetType), loc)
}

func (e *Engine) coerceStructJSON(text string, td *types.TypeDescriptor, loc ast.Location) (any, *errs.DanaException) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errs.New(errs.KindCoercion, "ValueError",
			fmt.Sprintf("cannot parse %q as %s: not a JSON object", truncate(text), td.Name), loc)
	}

	fields := td.AllFields()
	known := make(map[string]bool, len(fields))
	values := make(map[string]any, len(fields))

	for _, f := range fields {
		known[f.Name] = true
		rawVal, present := raw[f.Name]
		if !present {
			if f.Default == nil {
				return nil, errs.New(errs.KindCoercion, "ValueError",
					fmt.Sprintf("missing required field %q for type %s", f.Name, td.Name), loc)
			}
			continue
		}
		coerced, derr := e.CoerceToType(rawVal, f.Type, loc)
		if derr != nil {
			return nil, derr
		}
		values[f.Name] = coerced
	}
	for k := range raw {
		if !known[k] {
			return nil, errs.New(errs.KindCoercion, "ValueError",
				fmt.Sprintf("unexpected field %q for type %s", k, td.Name), loc)
		}
	}

	switch td.Category {
	case types.CategoryAgent:
		return types.NewAgentInstance(td, values), nil
	case types.CategoryResource:
		return types.NewResourceInstance(td, values), nil
	default:
		return types.NewStructInstance(td, values), nil
	}
}
