package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stitch/internal/diag"
	"stitch/internal/source"
)

// DirResult aggregates a directory run. Results are ordered by path, so the
// concatenated observation channel is deterministic regardless of how the
// workers interleaved.
type DirResult struct {
	FileSet *source.FileSet
	Files   []*FileResult
	// SkippedNoAST lists sources that had no AST dump next to them.
	SkippedNoAST []string
	Bag          *diag.Bag
}

// listSources returns the sorted *.c files under dir that are not AST dumps
// or other sidecars.
func listSources(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".c") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ListTargets returns the sorted *.c files under dir, sidecar or not. The
// progress UI uses it to lay out rows before the run starts.
func ListTargets(dir string) ([]string, error) {
	return listSources(dir)
}

// InstrumentDir instruments every .c file under dir that has an AST dump
// sidecar. Files are processed in parallel; each worker owns its file's
// edit buffer and candidate set, and loads into its own FileSet so there is
// no shared mutable state. The first fatal file error cancels the run.
func InstrumentDir(ctx context.Context, dir string, opts Options) (*DirResult, error) {
	files, err := listSources(dir)
	if err != nil {
		return nil, err
	}

	progress := opts.Progress
	if progress == nil {
		progress = NopSink{}
	}

	result := &DirResult{
		FileSet: source.NewFileSetWithBase(dir),
		Bag:     diag.NewBag(maxDiags(opts)),
	}

	// Split sources from the ones missing a sidecar up front, so workers
	// only ever see instrumentable files.
	targets, missing := splitBySidecar(files)
	result.SkippedNoAST = missing
	for _, path := range result.SkippedNoAST {
		result.Bag.Add(diag.Diagnostic{
			Severity: diag.SevWarning,
			Code:     diag.CodeASTMissing,
			Message:  "no AST dump next to " + path + ", skipped",
		})
		progress.OnEvent(Event{File: path, Status: StatusSkipped})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*FileResult, len(targets))
	fsets := make([]*source.FileSet, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range targets {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			progress.OnEvent(Event{File: path, Status: StatusRunning})
			started := time.Now()

			fset := source.NewFileSetWithBase(dir)
			res, err := InstrumentFile(fset, path, "", opts)
			if err != nil {
				progress.OnEvent(Event{File: path, Status: StatusFailed, Err: err, Elapsed: time.Since(started)})
				return err
			}

			status := StatusDone
			if res.CacheHit {
				status = StatusCached
			}
			progress.OnEvent(Event{
				File:         path,
				Status:       status,
				Elapsed:      time.Since(started),
				Instrumented: res.Instrumented,
			})

			results[i] = res
			fsets[i] = fset
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Re-home results into one FileSet for reporting, in path order.
	for i, res := range results {
		f := fsets[i].Get(res.FileID)
		newID := result.FileSet.Add(f.Path, f.Content, f.Flags)
		for _, d := range res.Bag.Items() {
			d.Primary.File = newID
			result.Bag.Add(d)
		}
		res.FileID = newID
		result.Files = append(result.Files, res)
	}
	return result, nil
}

func splitBySidecar(files []string) (targets, missing []string) {
	for _, path := range files {
		if fileExists(SidecarPath(path)) {
			targets = append(targets, path)
		} else {
			missing = append(missing, path)
		}
	}
	return targets, missing
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
