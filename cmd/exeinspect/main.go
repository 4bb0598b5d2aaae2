// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command exeinspect decodes an MZ/NE/PE image and writes it as indented
// JSON to stdout. It exists to exercise the object model end-to-end, not
// to replace a GUI inspector.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbienstadt/exelib"
	"github.com/jbienstadt/exelib/log"
)

var (
	loadAll bool
	verbose bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exeinspect <path>",
		Short: "Decode an MZ/NE/PE image and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	cmd.Flags().BoolVar(&loadAll, "all", false, "load every optional substructure (relocations, segment/resource/section data, CLI metadata streams and tables)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log non-fatal decode anomalies to stderr")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	opts := exelib.DefaultOptions
	if loadAll {
		opts = exelib.LoadAll
	}

	level := log.LevelError
	if verbose {
		level = log.LevelWarn
	}
	logger := log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(level)))

	img, err := exelib.Open(args[0], opts, logger)
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer img.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(img)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
