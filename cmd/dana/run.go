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
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/parser"
)

// RunCmd executes a single DANA program file.
type RunCmd struct {
	File  string `arg:"" type:"path" help:"Path to a .na program file."`
	Watch bool   `help:"Re-run the program every time File changes."`
}

func (c *RunCmd) Run(cli *CLI) error {
	if !c.Watch {
		return runOnce(cli.Config, c.File)
	}

	if err := runOnce(cli.Config, c.File); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return watchAndRerun(c.File, func() {
		if err := runOnce(cli.Config, c.File); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
}

// runOnce parses and executes path's program under a fresh interpreter
// built from cfgPath, so each run (including each --watch re-run) starts
// with empty registries rather than accumulating state across runs.
func runOnce(cfgPath, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	result := parser.Parse(string(src))
	if !result.IsValid() {
		for _, se := range result.Errors {
			fmt.Fprintln(os.Stderr, se.Error())
		}
		return fmt.Errorf("%d syntax error(s) in %s", len(result.Errors), path)
	}

	interp, _, err := buildInterpreter(cfgPath)
	if err != nil {
		return err
	}

	moduleName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if _, derr := interp.Run(result.Program, moduleName); derr != nil {
		fmt.Fprint(os.Stderr, errs.Format(derr))
		return fmt.Errorf("%s exited with an uncaught %s", path, derr.Type)
	}
	return nil
}

// watchAndRerun blocks, calling onChange every time path is written,
// renamed, or recreated. The containing directory is watched rather than
// path itself since editors commonly replace a file rather than writing
// it in place — the same reasoning pkg/config.Watch documents for
// dana.yaml.
func watchAndRerun(path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	base := filepath.Base(path)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}
