package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stitch/internal/ast"
	"stitch/internal/diag"
	"stitch/internal/match"
	"stitch/internal/rewrite"
	"stitch/internal/source"
	"stitch/internal/trace"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates [flags] <file.c>",
	Short: "List repair targets without rewriting",
	Long: `Candidates runs selection and location resolution only, printing the
observation channel record each fragment would produce. The source file is
never modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runCandidates,
}

func init() {
	candidatesCmd.Flags().String("ast", "", "AST dump path (default <file>.ast.json)")
	candidatesCmd.Flags().Bool("if-conditions", false, "select if conditions")
	candidatesCmd.Flags().Bool("loop-conditions", false, "select while/do/for conditions")
	candidatesCmd.Flags().Bool("assignments", false, "select assignment right-hand sides")
	candidatesCmd.Flags().Bool("guards", false, "select guarded early-exit statements")
	candidatesCmd.Flags().Bool("ignore-trivial", false, "skip bare-literal conditions and right-hand sides")
	candidatesCmd.Flags().Bool("observation", false, "observation mode: all conditions plus integer assignments")
	candidatesCmd.Flags().String("hook", "", "unused, accepted for flag parity with instrument")
	candidatesCmd.Flags().String("format", "text", "output format (text|json)")
}

func runCandidates(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, _, _, err := resolveConfig(cmd, path, false)
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
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	var sink trace.Sink
	switch format {
	case "text":
		sink = trace.NewWriter(os.Stdout)
	case "json":
		sink = trace.NewJSONWriter(os.Stdout)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	fset := source.NewFileSet()
	fileID, err := fset.Load(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	file := fset.Get(fileID)

	if astPath == "" {
		astPath = path + ".ast.json"
	}
	// #nosec G304 -- path is provided by the caller
	dump, err := os.ReadFile(astPath)
	if err != nil {
		return fmt.Errorf("read ast dump %s: %w", astPath, err)
	}
	tree, err := ast.DecodeBytes(dump, file)
	if err != nil {
		return fmt.Errorf("%s: %w", astPath, err)
	}

	cands := match.NewSelector(cfg).Select(tree)

	// The rewrite engine resolves locations, filters overlaps, and emits
	// records; a nil-output dry run would duplicate all of that, so run it
	// against a collector and discard the buffer.
	var col trace.Collector
	engine := rewrite.NewEngine(fset, tree, &col, rewrite.Options{
		MaxDiagnostics: maxDiagnostics,
	})
	out, err := engine.Run(cands)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	for _, r := range col.Records() {
		if err := sink.Emit(r); err != nil {
			return err
		}
	}

	if err := diag.Report(os.Stderr, fset, out.Bag); err != nil {
		return err
	}
	if out.Bag.HasErrors() {
		cmd.SilenceUsage = true
		return fmt.Errorf("selection finished with errors")
	}
	return nil
}
