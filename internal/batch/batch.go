// Package batch converts many OBJ files concurrently.
package batch

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshpack/internal/convert"
)

// Options holds shared settings for a batch run.
type Options struct {
	Workers   int    // 0 means one per CPU
	OutputDir string // empty writes next to each input
	Root      string // outputs keep their path relative to Root inside OutputDir
	Convert   convert.Options
	Logger    *zap.Logger

	// ProgressInterval is how often progress is logged; 0 means 2s.
	ProgressInterval time.Duration
}

// Result holds the outcome of converting one file.
type Result struct {
	Input  string
	Output string
	Stats  *convert.Result // nil on failure
	Err    error
}

// OK reports whether the file converted.
func (r Result) OK() bool { return r.Err == nil }

// Summary counts batch outcomes.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Rows      int
	Triangles int
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if !r.OK() {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Rows += r.Stats.Rows
		s.Triangles += r.Stats.Indices / 3
	}
	return s
}

// Find walks root and returns files whose base name matches pattern,
// compared case-insensitively, in lexical order.
func Find(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.obj"
	}
	pattern = strings.ToLower(pattern)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, strings.ToLower(d.Name())); ok {
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

// Run converts files on a worker pool. Results keep the order of files.
// Files not yet started when ctx is cancelled get ctx.Err() as their error.
func Run(ctx context.Context, files []string, opts Options) []Result {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(files), 1))
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64
	start := time.Now()

	log.Info("batch started", zap.Int("files", total), zap.Int("workers", workers))

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("files_per_sec", rate),
					)
				}
			}
		}
	}()

	// Worker pool
	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Input: files[idx], Err: err}
				} else {
					results[idx] = convertOne(files[idx], opts, log)
				}
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	s := Summarize(results)
	log.Info("batch finished",
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return results
}

func convertOne(path string, opts Options, log *zap.Logger) Result {
	out := convert.OutputPathUnder(path, opts.Root, opts.OutputDir)
	copts := opts.Convert
	copts.Logger = log.With(zap.String("file", path))

	res, err := convert.File(path, out, copts)
	if err != nil {
		log.Warn("conversion failed", zap.String("file", path), zap.Error(err))
		return Result{Input: path, Output: out, Err: err}
	}
	return Result{Input: path, Output: out, Stats: res}
}
