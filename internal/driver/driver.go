// Package driver wires one file's instrumentation pipeline together: load
// source, decode the AST dump, select candidates, run the rewrite engine,
// and flush the result. Directory runs fan the same pipeline out across
// files with no shared mutable state beyond the FileSet they load into.
package driver

import (
	"fmt"
	"os"

	"stitch/internal/ast"
	"stitch/internal/diag"
	"stitch/internal/match"
	"stitch/internal/rewrite"
	"stitch/internal/source"
	"stitch/internal/trace"
)

// Options configures an instrumentation run.
type Options struct {
	Match match.Config
	// Hook is the trace hook name; empty means rewrite.DefaultHook.
	Hook string
	// InPlace overwrites each source file; otherwise the rewritten buffer
	// is kept on the result for streaming.
	InPlace        bool
	MaxDiagnostics int
	// Cache, when set, short-circuits files whose source, AST, and
	// configuration all match a previous run.
	Cache *DiskCache
	// Jobs bounds directory-run parallelism; 0 means GOMAXPROCS.
	Jobs int
	// Progress receives per-file events during directory runs.
	Progress Sink
}

// FileResult is the outcome of instrumenting one file.
type FileResult struct {
	Path         string
	FileID       source.FileID
	Records      []trace.Record
	Output       []byte
	Instrumented int
	Skipped      int
	CacheHit     bool
	Bag          *diag.Bag
}

// SidecarPath returns the AST dump path for a source file.
func SidecarPath(sourcePath string) string {
	return sourcePath + ".ast.json"
}

// InstrumentFile runs the full pipeline for one file. astPath empty means
// the conventional sidecar next to the source. Read and decode failures are
// fatal for the file; per-candidate trouble lands in the result's bag.
func InstrumentFile(fset *source.FileSet, path, astPath string, opts Options) (*FileResult, error) {
	if astPath == "" {
		astPath = SidecarPath(path)
	}

	fileID, err := fset.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	file := fset.Get(fileID)

	// #nosec G304 -- path is provided by the caller
	dump, err := os.ReadFile(astPath)
	if err != nil {
		return nil, fmt.Errorf("read ast dump %s: %w", astPath, err)
	}

	res := &FileResult{
		Path:   path,
		FileID: fileID,
		Bag:    diag.NewBag(maxDiags(opts)),
	}

	key := CacheKey(file.Hash, dump, opts.Match, opts.Hook)
	if opts.Cache != nil {
		var payload Payload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			return nil, fmt.Errorf("cache read for %s: %w", path, err)
		}
		if hit {
			res.Records = payload.Records
			res.Output = payload.Output
			res.Instrumented = payload.Instrumented
			res.Skipped = payload.Skipped
			for _, d := range payload.Diags {
				res.Bag.Add(d)
			}
			res.CacheHit = true
			return flush(res, path, opts)
		}
	}

	tree, err := ast.DecodeBytes(dump, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", astPath, err)
	}

	cands := match.NewSelector(opts.Match).Select(tree)

	var col trace.Collector
	engine := rewrite.NewEngine(fset, tree, &col, rewrite.Options{
		Hook:           opts.Hook,
		MaxDiagnostics: maxDiags(opts),
	})
	out, err := engine.Run(cands)
	if err != nil {
		return nil, fmt.Errorf("instrument %s: %w", path, err)
	}

	res.Records = col.Records()
	res.Output = out.Output
	res.Instrumented = out.Instrumented
	res.Skipped = out.Skipped
	res.Bag.Merge(out.Bag)

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, &Payload{
			Records:      res.Records,
			Output:       res.Output,
			Instrumented: res.Instrumented,
			Skipped:      res.Skipped,
			Diags:        res.Bag.Items(),
		}); err != nil {
			return nil, fmt.Errorf("cache write for %s: %w", path, err)
		}
	}

	return flush(res, path, opts)
}

func flush(res *FileResult, path string, opts Options) (*FileResult, error) {
	if opts.InPlace && res.Instrumented > 0 {
		if err := rewrite.FlushInPlace(path, res.Output); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func maxDiags(opts Options) int {
	if opts.MaxDiagnostics > 0 {
		return opts.MaxDiagnostics
	}
	return 100
}

// EmitRecords replays a result's trace records onto the observation
// channel, preserving their original order.
func EmitRecords(sink trace.Sink, res *FileResult) error {
	for _, r := range res.Records {
		if err := sink.Emit(r); err != nil {
			return err
		}
	}
	return nil
}
