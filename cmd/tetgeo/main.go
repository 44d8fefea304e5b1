// Command tetgeo partitions the boundary of tetrahedral meshes into six
// physical groups and exports the results.
//
// Usage:
//
//	tetgeo -f config.json [--force]
//
// A missing config file is created with default settings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/tetgeo/internal/config"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	flags := flag.NewFlagSet("tetgeo", flag.ContinueOnError)
	var (
		path  string
		force bool
	)
	flags.StringVar(&path, "f", "", "path of the JSON config file")
	flags.StringVar(&path, "file", "", "path of the JSON config file")
	flags.BoolVar(&force, "force", false, "reprocess inputs the ledger marks as current")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if path == "" {
		fmt.Fprintln(os.Stderr, "tetgeo: config path is required (-f)")
		return 2
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := config.WriteDefault(path); err != nil {
			fmt.Fprintf(os.Stderr, "tetgeo: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "tetgeo: created default config in %s\n", path)
		return 0
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tetgeo: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "tetgeo: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, force, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tetgeo: %v\n", err)
		return 1
	}
	return 0
}
