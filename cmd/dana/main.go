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

// Command dana is the CLI for the DANA language runtime.
//
// Usage:
//
//	dana run program.na
//	dana run program.na --watch
//	dana repl
//	dana version
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dana-lang/dana/pkg/config"
	"github.com/dana-lang/dana/pkg/logger"
)

// CLI defines the top-level command-line interface.
type CLI struct {
	Run     RunCmd     `cmd:"" default:"withargs" help:"Execute a DANA program file."`
	Repl    ReplCmd    `cmd:"" help:"Start an interactive DANA REPL."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config     string `short:"c" help:"Path to dana.yaml manifest." type:"path"`
	LogLevel   string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile    string `help:"Log file path (empty = stderr)."`
	LogFormat  string `help:"Log format (simple or verbose)." default:"simple"`
	Debug      bool   `help:"Shorthand for --log-level=debug."`
	NoColor    bool   `help:"Disable colored banner/REPL output even on a terminal."`
	ForceColor bool   `name:"force-color" help:"Enable colored output even when not a terminal."`
}

func main() {
	_ = config.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("dana"),
		kong.Description("DANA — a domain-aware neurosymbolic language runtime"),
		kong.UsageOnError(),
	)

	if cli.Debug {
		cli.LogLevel = "debug"
	}
	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dana: invalid log level: %v\n", err)
		os.Exit(1)
	}

	if !shouldSkipBanner(os.Args) {
		printBanner(cli.useColor())
	}

	output := os.Stderr
	var cleanup func()
	if cli.LogFile != "" {
		f, cleanupFn, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dana: opening log file: %v\n", err)
			os.Exit(1)
		}
		output = f
		cleanup = cleanupFn
	}
	logger.Init(level, output, cli.LogFormat)
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
