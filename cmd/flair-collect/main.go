package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ricokahler/flair/collect"
	"github.com/ricokahler/flair/internal/log"
	"github.com/ricokahler/flair/internal/parser/css"
	"github.com/ricokahler/flair/internal/parser/js"
	"github.com/ricokahler/flair/internal/version"
	"github.com/spf13/cobra"
)

type flags struct {
	theme   string
	root    string
	out     string
	prefix  bool
	json    bool
	debug   bool
	workers int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand(os.Stdout).ExecuteContext(ctx)
	stop()
	js.ClosePool()
	css.ClosePool()

	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "flair-collect [files...]",
		Short: "Extract static stylesheets from createStyles modules",
		Long: `flair-collect evaluates each module's createStyles definitions against a
mock theme and prints the scoped stylesheet. Without file arguments it
extracts every file under --root matching the configured include globs.`,
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f, stdout)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.theme, "theme", "t", "", "path to the theme module")
	fl.StringVarP(&f.root, "root", "r", ".", "project root holding package.json")
	fl.StringVarP(&f.out, "out", "o", "", "write one <hash>.css file per module into this directory")
	fl.BoolVar(&f.prefix, "prefix", false, "add vendor-prefixed declarations")
	fl.BoolVar(&f.json, "json", false, "print results as JSON")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fl.IntVarP(&f.workers, "workers", "w", 0, "modules extracted in parallel (default: number of CPUs)")
	return cmd
}

func run(cmd *cobra.Command, args []string, f flags, stdout io.Writer) error {
	log.SetOutput(cmd.ErrOrStderr())
	if f.debug {
		log.SetLevel(log.LevelDebug)
	}

	opts, err := collect.LoadOptions(f.root)
	if err != nil {
		return err
	}
	if opts == nil {
		d := collect.DefaultOptions()
		opts = &d
	}
	if cmd.Flags().Changed("theme") {
		opts.ThemePath = f.theme
	}
	if cmd.Flags().Changed("prefix") {
		opts.Prefix = f.prefix
	}

	files := args
	if len(files) == 0 {
		if files, err = collect.Discover(f.root, opts.Include, opts.Exclude); err != nil {
			return fmt.Errorf("failed to discover modules: %w", err)
		}
		log.Debug("discovered %d modules under %s", len(files), f.root)
	}

	results, err := collect.ExtractAll(cmd.Context(), files, *opts, f.workers)
	if werr := write(results, f, stdout); werr != nil {
		return werr
	}
	return err
}

func write(results []*collect.Result, f flags, stdout io.Writer) error {
	var done []*collect.Result
	for _, r := range results {
		if r != nil && !r.Empty() {
			done = append(done, r)
		}
	}

	if f.out != "" {
		if err := os.MkdirAll(f.out, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.out, err)
		}
		for _, r := range done {
			path := filepath.Join(f.out, r.FilenameHash+".css")
			if err := os.WriteFile(path, []byte(r.CSS()), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			log.Info("wrote %s", path)
		}
	}

	if f.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if done == nil {
			done = []*collect.Result{}
		}
		return enc.Encode(done)
	}
	if f.out != "" {
		return nil
	}
	for _, r := range done {
		if _, err := fmt.Fprintf(stdout, "/* %s */\n%s\n", r.FilePath, r.CSS()); err != nil {
			return err
		}
	}
	return nil
}
