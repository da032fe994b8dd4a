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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/interpreter"
	"github.com/dana-lang/dana/pkg/parser"
)

// ReplCmd starts an interactive prompt: one buffered interpreter shared
// across every entry, so a variable bound on one line is visible on the
// next — the same module-scope sandbox.Context is reused for the whole
// session rather than rebuilt per line.
type ReplCmd struct{}

func (c *ReplCmd) Run(cli *CLI) error {
	interp, _, err := buildInterpreter(cli.Config)
	if err != nil {
		return err
	}

	fmt.Println("dana REPL — blank line to evaluate, Ctrl+D to exit")
	scanner := bufio.NewScanner(os.Stdin)
	var buf strings.Builder

	prompt := func() {
		if buf.Len() == 0 {
			fmt.Print(">>> ")
		} else {
			fmt.Print("... ")
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" && buf.Len() > 0 {
			evalRepl(interp, buf.String())
			buf.Reset()
			prompt()
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		if strings.TrimSpace(line) == "" {
			prompt()
			continue
		}
		prompt()
	}
	if buf.Len() > 0 {
		evalRepl(interp, buf.String())
	}
	fmt.Println()
	return nil
}

func evalRepl(interp *interpreter.Interpreter, src string) {
	result := parser.Parse(src)
	if !result.IsValid() {
		for _, se := range result.Errors {
			fmt.Fprintln(os.Stderr, se.Error())
		}
		return
	}

	value, derr := interp.Run(result.Program, "repl")
	if derr != nil {
		fmt.Fprint(os.Stderr, errs.Format(derr))
		return
	}
	if value != nil {
		fmt.Println(coercion.ToText(value))
	}
}
