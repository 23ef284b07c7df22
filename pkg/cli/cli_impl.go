package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/runtime"
	"github.com/lowerjs/lowerjs/pkg/api"
)

type stdio struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Returned when the transform already printed its own errors
var errBuildFailed = errors.New("build failed")

type buildFlags struct {
	outdir         string
	config         string
	target         string
	format         string
	helpers        string
	importBindings string
	runtime        string
	sourcefile     string
	color          string
	logLevel       string
	strict         bool
	watch          bool
	parallelism    int
}

func runImpl(osArgs []string, std stdio) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand(std)
	cmd.SetArgs(osArgs)
	cmd.SetIn(std.stdin)
	cmd.SetOut(std.stdout)
	cmd.SetErr(std.stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errBuildFailed) {
			logger.PrintErrorToStderr(osArgs, err.Error())
		}
		return 1
	}
	return 0
}

func newRootCommand(std stdio) *cobra.Command {
	root := &cobra.Command{
		Use:           "lowerjs",
		Short:         "Rewrites modern JavaScript classes and modules for older runtimes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBuildCommand(std), newHelpersCommand())
	return root
}

func newBuildCommand(std stdio) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build [files...]",
		Short: "Lower the given files, or stdin when there are none",
		Example: `  # Lower one file to stdout
  lowerjs build app.js

  # Lower several files into a directory as ES modules with inlined helpers
  lowerjs build --outdir=dist --format=esm --helpers=inline src/*.js

  # Read from stdin
  lowerjs build --target=es2015 < input.js > output.js`,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := resolveOptions(cmd, flags)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if flags.watch {
					return errors.New("Cannot use \"--watch\" when reading from stdin")
				}
				return buildStdin(std, options)
			}
			if flags.sourcefile != "" {
				return errors.New("\"--sourcefile\" only applies when reading from stdin")
			}
			if flags.outdir == "" && (len(args) > 1 || flags.watch) {
				return errors.New("Must use \"--outdir\" when there are multiple input files or when watching")
			}
			err = buildFiles(cmd.Context(), std, args, flags.outdir, options)
			if !flags.watch {
				return err
			}

			// Keep watching after a failed build so the next save can fix it
			if err != nil && !errors.Is(err, errBuildFailed) {
				fmt.Fprintf(std.stderr, "[watch] %s\n", err.Error())
			}
			return watchFiles(cmd.Context(), std, args, flags.outdir, options)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.outdir, "outdir", "", "The output directory (required for multiple files)")
	f.StringVar(&flags.config, "config", "", "Read options from this YAML file. Flags override it.")
	f.StringVar(&flags.target, "target", "es5", "The oldest language version to support (es5 ... es2022, esnext)")
	f.StringVar(&flags.format, "format", "cjs", "Output module format (cjs, esm)")
	f.StringVar(&flags.helpers, "helpers", "import", "Import helpers from the runtime package or inline them (import, inline)")
	f.StringVar(&flags.importBindings, "import-bindings", "live", "How converted imports are read (live, snapshot)")
	f.StringVar(&flags.runtime, "runtime", "", "The package helpers are imported from (default \"@swc/helpers\")")
	f.StringVar(&flags.sourcefile, "sourcefile", "", "The file name to use in messages when reading from stdin")
	f.StringVar(&flags.color, "color", "", "Force use of color terminal escapes (true or false)")
	f.StringVar(&flags.logLevel, "log-level", "info", "Which messages to print (info, warning, error, silent)")
	f.BoolVar(&flags.strict, "strict", false, "Add \"use strict\" to files that were ES modules")
	f.BoolVar(&flags.watch, "watch", false, "Rebuild files when they change")
	f.IntVar(&flags.parallelism, "parallelism", 0, "How many files to lower at once (default one per CPU)")
	return cmd
}

func newHelpersCommand() *cobra.Command {
	var runtimePackage string

	cmd := &cobra.Command{
		Use:   "helpers",
		Short: "List the helpers that lowered code can call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := runtime.DefaultCatalog().WithRuntimePackage(runtimePackage)
			out := cmd.OutOrStdout()
			for _, name := range catalog.SortedNames() {
				path, _ := catalog.ImportPath(name)
				helper, _ := catalog.Lookup(name)
				line := fmt.Sprintf("%s\t%s", name, path)
				if len(helper.Deps) > 0 {
					line += fmt.Sprintf("\t(uses %s)", strings.Join(helper.Deps, ", "))
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runtimePackage, "runtime", "", "Show import paths for this runtime package")
	return cmd
}

// Flags that were set explicitly win over the config file, which wins over
// the flag defaults
func resolveOptions(cmd *cobra.Command, flags buildFlags) (api.TransformOptions, error) {
	var options api.TransformOptions
	if flags.config != "" {
		loaded, err := api.LoadConfigFile(flags.config)
		if err != nil {
			return api.TransformOptions{}, err
		}
		options = loaded
	}

	changed := cmd.Flags().Changed
	var err error

	if flags.config == "" || changed("target") {
		if options.Target, err = api.ParseTarget(flags.target); err != nil {
			return api.TransformOptions{}, err
		}
	}
	if flags.config == "" || changed("format") {
		if options.Format, err = api.ParseFormat(flags.format); err != nil {
			return api.TransformOptions{}, err
		}
	}
	if flags.config == "" || changed("helpers") {
		if options.Helpers, err = api.ParseHelperMode(flags.helpers); err != nil {
			return api.TransformOptions{}, err
		}
	}
	if flags.config == "" || changed("import-bindings") {
		if options.ImportBindings, err = api.ParseImportBindings(flags.importBindings); err != nil {
			return api.TransformOptions{}, err
		}
	}
	if changed("runtime") {
		options.RuntimePackage = flags.runtime
	}
	if changed("strict") {
		options.StrictFile = flags.strict
	}
	if changed("parallelism") {
		if flags.parallelism < 0 {
			return api.TransformOptions{}, fmt.Errorf("Invalid parallelism: %d", flags.parallelism)
		}
		options.Parallelism = flags.parallelism
	}

	switch flags.color {
	case "":
		options.Color = api.ColorIfTerminal
	case "true":
		options.Color = api.ColorAlways
	case "false":
		options.Color = api.ColorNever
	default:
		return api.TransformOptions{}, fmt.Errorf("Invalid color: %q (valid: true, false)", flags.color)
	}

	switch flags.logLevel {
	case "info":
		options.LogLevel = api.LogLevelInfo
	case "warning":
		options.LogLevel = api.LogLevelWarning
	case "error":
		options.LogLevel = api.LogLevelError
	case "silent":
		options.LogLevel = api.LogLevelSilent
	default:
		return api.TransformOptions{}, fmt.Errorf("Invalid log level: %q (valid: info, warning, error, silent)", flags.logLevel)
	}

	options.Sourcefile = flags.sourcefile
	options.ErrorLimit = 10
	return options, nil
}

func buildStdin(std stdio, options api.TransformOptions) error {
	bytes, err := io.ReadAll(std.stdin)
	if err != nil {
		return fmt.Errorf("Could not read from stdin: %w", err)
	}

	// Messages are printed by the log as they happen
	result := api.Transform(string(bytes), options)
	if len(result.Errors) > 0 {
		return errBuildFailed
	}
	if _, err := std.stdout.Write(result.JS); err != nil {
		return fmt.Errorf("Failed to write to stdout: %w", err)
	}
	return nil
}

func buildFiles(ctx context.Context, std stdio, paths []string, outdir string, options api.TransformOptions) error {
	outputs, err := outputPaths(paths, outdir)
	if err != nil {
		return err
	}

	files := make([]api.File, len(paths))
	for i, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("Could not read %q: %w", path, err)
		}
		files[i] = api.File{Path: path, Contents: string(contents)}
	}

	results, err := api.TransformFiles(ctx, files, options)
	if err != nil {
		return err
	}

	failed := false
	for i, result := range results {
		if len(result.Errors) > 0 {
			failed = true
			continue
		}
		if outdir == "" {
			if _, err := std.stdout.Write(result.JS); err != nil {
				return fmt.Errorf("Failed to write to stdout: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outputs[i]), 0755); err != nil {
			return fmt.Errorf("Failed to create output directory: %w", err)
		}
		if err := os.WriteFile(outputs[i], result.JS, 0644); err != nil {
			return fmt.Errorf("Failed to write to output file: %w", err)
		}
	}

	if failed {
		return errBuildFailed
	}
	return nil
}

// Each input keeps its file name inside the output directory
func outputPaths(paths []string, outdir string) ([]string, error) {
	if outdir == "" {
		return make([]string, len(paths)), nil
	}
	outputs := make([]string, len(paths))
	seen := make(map[string]string)
	for i, path := range paths {
		output := filepath.Join(outdir, filepath.Base(path))
		if other, ok := seen[output]; ok {
			return nil, fmt.Errorf("Both %q and %q would be written to %q", other, path, output)
		}
		seen[output] = path
		outputs[i] = output
	}
	return outputs, nil
}

func watchFiles(ctx context.Context, std stdio, paths []string, outdir string, options api.TransformOptions) error {
	// The watcher reports absolute paths, so map them back to what was passed
	byAbsPath := make(map[string]string, len(paths))
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("Invalid path %q: %w", path, err)
		}
		byAbsPath[absPath] = path
	}

	fmt.Fprintf(std.stderr, "[watch] watching %d files\n", len(paths))
	return api.Watch(ctx, paths, api.WatchOptions{
		OnChange: func(changed []string) {
			var rebuild []string
			for _, absPath := range changed {
				if path, ok := byAbsPath[absPath]; ok {
					rebuild = append(rebuild, path)
				}
			}
			if len(rebuild) == 0 {
				return
			}
			fmt.Fprintf(std.stderr, "[watch] build started (change: %q)\n", rebuild[0])
			err := buildFiles(ctx, std, rebuild, outdir, options)
			if err != nil && !errors.Is(err, errBuildFailed) {
				fmt.Fprintf(std.stderr, "[watch] %s\n", err.Error())
				return
			}
			fmt.Fprintf(std.stderr, "[watch] build finished\n")
		},
		OnError: func(err error) {
			fmt.Fprintf(std.stderr, "[watch] %s\n", err.Error())
		},
	})
}
