package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stitch/internal/diag"
	"stitch/internal/driver"
	"stitch/internal/match"
	"stitch/internal/project"
	"stitch/internal/rewrite"
	"stitch/internal/source"
	"stitch/internal/trace"
)

var instrumentCmd = &cobra.Command{
	Use:   "instrument [flags] <file.c|directory>",
	Short: "Rewrite repair targets into trace-emitting wrappers",
	Long: `Instrument wraps every matched fragment of a C source in a call to the
trace hook and records the observation channel. A single file streams the
rewritten buffer to stdout unless --in-place; a directory run requires
--in-place and processes every *.c file that has an AST dump sidecar.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstrument,
}

func init() {
	instrumentCmd.Flags().String("ast", "", "AST dump path (default <file>.ast.json, single file only)")
	instrumentCmd.Flags().Bool("if-conditions", false, "instrument if conditions")
	instrumentCmd.Flags().Bool("loop-conditions", false, "instrument while/do/for conditions")
	instrumentCmd.Flags().Bool("assignments", false, "instrument assignment right-hand sides")
	instrumentCmd.Flags().Bool("guards", false, "instrument guarded early-exit statements")
	instrumentCmd.Flags().Bool("ignore-trivial", false, "skip bare-literal conditions and right-hand sides")
	instrumentCmd.Flags().Bool("observation", false, "observation mode: all conditions plus integer assignments")
	instrumentCmd.Flags().Bool("in-place", false, "overwrite source files instead of streaming to stdout")
	instrumentCmd.Flags().String("hook", "", "trace hook name (default "+rewrite.DefaultHook+")")
	instrumentCmd.Flags().String("trace", "", "write the observation channel to a file, or - for stderr")
	instrumentCmd.Flags().String("trace-format", "text", "observation channel format (text|json)")
	instrumentCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	instrumentCmd.Flags().Bool("no-cache", false, "bypass the per-file result cache")
	instrumentCmd.Flags().String("ui", "auto", "progress view for directory runs (auto|on|off)")
}

func runInstrument(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	st, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	cfg, hook, inPlace, err := resolveConfig(cmd, targetPath, st.IsDir())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	astPath, err := cmd.Flags().GetString("ast")
	if err != nil {
		return fmt.Errorf("failed to get ast flag: %w", err)
	}
	if st.IsDir() && astPath != "" {
		return fmt.Errorf("--ast is only supported for single files")
	}
	if st.IsDir() && !inPlace {
		return fmt.Errorf("directory runs require --in-place")
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	opts := driver.Options{
		Match:          cfg,
		Hook:           hook,
		InPlace:        inPlace,
		MaxDiagnostics: maxDiagnostics,
	}
	if !noCache {
		cache, err := driver.OpenDiskCache("stitch")
		if err != nil {
			return fmt.Errorf("failed to open result cache: %w", err)
		}
		opts.Cache = cache
	}

	sink, closeSink, err := openTraceSink(cmd)
	if err != nil {
		return err
	}
	defer closeSink()

	if st.IsDir() {
		return runInstrumentDir(cmd, targetPath, opts, sink, quiet)
	}
	return runInstrumentFile(cmd, targetPath, astPath, opts, sink, quiet)
}

func runInstrumentFile(cmd *cobra.Command, path, astPath string, opts driver.Options, sink trace.Sink, quiet bool) error {
	fset := source.NewFileSet()
	res, err := driver.InstrumentFile(fset, path, astPath, opts)
	if err != nil {
		return err
	}

	if sink != nil {
		if err := driver.EmitRecords(sink, res); err != nil {
			return err
		}
	}
	if !opts.InPlace {
		if err := rewrite.FlushStream(os.Stdout, res.Output); err != nil {
			return err
		}
	}

	if err := diag.Report(os.Stderr, fset, res.Bag); err != nil {
		return err
	}
	if !quiet && opts.InPlace {
		fmt.Fprintf(os.Stderr, "%s: %d instrumented, %d skipped\n", path, res.Instrumented, res.Skipped)
	}
	if res.Bag.HasErrors() {
		cmd.SilenceUsage = true
		return fmt.Errorf("instrumentation finished with errors")
	}
	return nil
}

func runInstrumentDir(cmd *cobra.Command, dir string, opts driver.Options, sink trace.Sink, quiet bool) error {
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	opts.Jobs = jobs

	var res *driver.DirResult
	if shouldUseTUI(mode) {
		res, err = runInstrumentDirWithUI(cmd.Context(), dir, opts)
	} else {
		res, err = driver.InstrumentDir(cmd.Context(), dir, opts)
	}
	if err != nil {
		return err
	}

	total, skipped := 0, 0
	for _, f := range res.Files {
		if sink != nil {
			if err := driver.EmitRecords(sink, f); err != nil {
				return err
			}
		}
		total += f.Instrumented
		skipped += f.Skipped
	}

	res.Bag.Sort()
	if err := diag.Report(os.Stderr, res.FileSet, res.Bag); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "%d files, %d instrumented, %d skipped, %d without AST dump\n",
			len(res.Files), total, skipped, len(res.SkippedNoAST))
	}
	if res.Bag.HasErrors() {
		cmd.SilenceUsage = true
		return fmt.Errorf("instrumentation finished with errors")
	}
	return nil
}

// resolveConfig merges the stitch.toml manifest (if any) with command flags.
// Flags that were set explicitly win over the manifest.
func resolveConfig(cmd *cobra.Command, targetPath string, isDir bool) (match.Config, string, bool, error) {
	startDir := targetPath
	if !isDir {
		startDir = filepath.Dir(targetPath)
	}

	var cfg match.Config
	hook := ""
	inPlace := false
	if manifestPath, ok, err := project.Find(startDir); err != nil {
		return cfg, "", false, err
	} else if ok {
		manifest, _, err := project.Load(manifestPath)
		if err != nil {
			return cfg, "", false, err
		}
		cfg = manifest.MatchConfig()
		hook = manifest.Instrument.Hook
		inPlace = manifest.Instrument.InPlace
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"if-conditions", &cfg.IfConditions},
		{"loop-conditions", &cfg.LoopConditions},
		{"assignments", &cfg.Assignments},
		{"guards", &cfg.Guards},
		{"ignore-trivial", &cfg.IgnoreTrivial},
		{"observation", &cfg.Observation},
		{"in-place", &inPlace},
	}
	for _, f := range boolFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		v, err := cmd.Flags().GetBool(f.name)
		if err != nil {
			return cfg, "", false, fmt.Errorf("failed to get %s flag: %w", f.name, err)
		}
		*f.dst = v
	}
	if cmd.Flags().Changed("hook") {
		v, err := cmd.Flags().GetString("hook")
		if err != nil {
			return cfg, "", false, fmt.Errorf("failed to get hook flag: %w", err)
		}
		hook = v
	}
	return cfg, hook, inPlace, nil
}

// openTraceSink builds the observation channel sink from --trace and
// --trace-format. "-" means stderr, keeping stdout free for the rewritten
// buffer in stream mode. A nil sink means no channel output was requested.
func openTraceSink(cmd *cobra.Command) (trace.Sink, func(), error) {
	tracePath, err := cmd.Flags().GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	format, err := cmd.Flags().GetString("trace-format")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	if tracePath == "" {
		return nil, func() {}, nil
	}

	var out io.Writer
	closeFn := func() {}
	if tracePath == "-" {
		out = os.Stderr
	} else {
		f, err := os.Create(tracePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open trace output: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	}

	switch format {
	case "text":
		return trace.NewWriter(out), closeFn, nil
	case "json":
		return trace.NewJSONWriter(out), closeFn, nil
	default:
		closeFn()
		return nil, nil, fmt.Errorf("unknown trace-format: %s", format)
	}
}
