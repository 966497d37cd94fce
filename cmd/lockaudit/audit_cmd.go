// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lockscan/bunlock"
	"github.com/lockscan/bunlock/audit"
	"github.com/lockscan/bunlock/internal/cache"
	ilog "github.com/lockscan/bunlock/internal/log"
	logruslog "github.com/lockscan/bunlock/internal/log/logrus"
	zaplog "github.com/lockscan/bunlock/internal/log/zap"
	"github.com/lockscan/bunlock/manifest"
)

func newAuditCmd() *cobra.Command {
	var (
		jsonOut     bool
		verbose     bool
		packageJSON string
		watch       bool
		logBackend  string
		skipHash    bool
	)

	cmd := &cobra.Command{
		Use:   "audit <path>",
		Short: "Audit a bun.lockb file for supply chain risks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			logger, err := buildLogger(logBackend)
			if err != nil {
				return err
			}

			c, err := cache.New()
			if err != nil {
				return err
			}

			runOnce := func() (audit.Report, error) {
				return runAudit(path, packageJSON, skipHash, logger, c)
			}

			if !watch {
				report, err := runOnce()
				if err != nil {
					return err
				}
				emit(report, jsonOut, verbose)
				os.Exit(report.ExitCode())
				return nil
			}

			return watchAndAudit(path, runOnce, jsonOut, verbose)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON only")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print verbose parser diagnostics")
	cmd.Flags().StringVar(&packageJSON, "package-json", "", "path to package.json (defaults to sibling of lockfile)")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-audit whenever the lockfile changes")
	cmd.Flags().StringVar(&logBackend, "log-backend", "zap", "structured logger backend: zap or logrus")
	cmd.Flags().BoolVar(&skipHash, "skip-hash-verification", false, "skip the name_hash cross-check")

	return cmd
}

func buildLogger(backend string) (ilog.Logger, error) {
	switch backend {
	case "", "zap":
		return zaplog.New()
	case "logrus":
		return logruslog.New(), nil
	default:
		return nil, fmt.Errorf("unknown --log-backend %q (want zap or logrus)", backend)
	}
}

func runAudit(path, packageJSONPath string, skipHash bool, logger ilog.Logger, c *cache.Cache) (audit.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audit.Report{}, err
	}

	opts := bunlock.DecodeOptions{SkipHashVerification: skipHash, Logger: logger}
	lf, warnings, err := c.GetOrDecode(data, func(b []byte) (*bunlock.Lockfile, []bunlock.Warning, error) {
		return opts.Decode(b)
	})
	if err != nil {
		return audit.Report{}, fmt.Errorf("decode %s: %w", path, err)
	}

	pkgJSON, err := manifest.Resolve(path, packageJSONPath)
	if err != nil {
		return audit.Report{}, fmt.Errorf("load package.json: %w", err)
	}

	return audit.Scan(lf, warnings, pkgJSON), nil
}

// disableColorWhenPiped turns off pterm's color codes when stdout isn't
// an interactive terminal (e.g. output redirected to a file or piped
// into another tool in CI).
func disableColorWhenPiped() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.DisableColor()
	}
}

func emit(report audit.Report, jsonOut, verbose bool) {
	disableColorWhenPiped()
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		return
	}
	if verbose {
		renderVerbose(report)
	}
	renderSummary(report)
	renderTables(report)
}

// watchAndAudit re-runs runOnce whenever path's lockfile changes,
// grounded on the fsnotify watch-loop idiom used for repository
// change detection in the example pack.
func watchAndAudit(path string, runOnce func() (audit.Report, error), jsonOut, verbose bool) error {
	report, err := runOnce()
	if err != nil {
		return err
	}
	emit(report, jsonOut, verbose)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			report, err := runOnce()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			emit(report, jsonOut, verbose)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
