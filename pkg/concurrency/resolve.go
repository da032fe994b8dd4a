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

package concurrency

// ResolveIfPromise forces v if it is a Promise (or a *ResolvedError
// produced by a limiter fallback), otherwise returns it unchanged. The
// interpreter calls this at every observation point spec §4.7 names:
// arithmetic/comparison operands, truthiness checks, str(), iteration,
// attribute access, and crossing an async boundary.
func ResolveIfPromise(v any) (any, error) {
	switch p := v.(type) {
	case Promise:
		if p.State() == StateCancelled {
			return nil, &LimiterError{msg: "observed a cancelled promise"}
		}
		value, err := p.Resolve()
		if err != nil {
			return nil, err
		}
		return ResolveIfPromise(value)
	case *ResolvedError:
		return nil, p.Err
	default:
		return v, nil
	}
}
