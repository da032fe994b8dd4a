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
)

// useColor resolves the three color flags into a single decision:
// --no-color always wins, --force-color always enables, otherwise color
// follows whether stdout is a terminal.
func (c *CLI) useColor() bool {
	if c.NoColor {
		return false
	}
	if c.ForceColor {
		return true
	}
	return isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// printBanner prints a small wordmark, colored when color is true and
// plain otherwise. Informational commands skip it (shouldSkipBanner).
func printBanner(color bool) {
	const banner = `
 ____    _    _   _    _
|  _ \  / \  | \ | |  / \
| | | |/ _ \ |  \| | / _ \
| |_| / ___ \| |\  |/ ___ \
|____/_/   \_\_| \_/_/   \_\
`
	if !color {
		fmt.Println(banner)
		return
	}
	const green = "\033[38;2;16;185;129m"
	const reset = "\033[0m"
	fmt.Printf("%s%s%s\n", green, banner, reset)
}

// shouldSkipBanner omits the banner for informational commands, the same
// convention the teacher's CLI uses for its own info/validate/schema
// commands — "version" here plays that role.
func shouldSkipBanner(args []string) bool {
	for _, arg := range args {
		if arg == "version" {
			return true
		}
	}
	return false
}
