package collect

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ricokahler/flair/internal/log"
	"github.com/ricokahler/flair/internal/sandbox"
	"github.com/ricokahler/flair/internal/theme"
	"go.uber.org/multierr"
)

// Discover walks root and returns the files matching include but not
// exclude, in lexical order. Patterns are doublestar globs over
// slash-separated paths relative to root.
func Discover(root string, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if matchAny(exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(include, rel) && !matchAny(exclude, rel) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// matchAny matches a glob pattern against a path using doublestar
func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// ExtractAll extracts every file with at most workers running at once. The
// returned slice is parallel to files; entries for failed files are nil and
// their errors are combined into the returned error. Files share one theme
// cache.
func ExtractAll(ctx context.Context, files []string, opts Options, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}
	if opts.Loader == nil {
		logger := opts.Logger
		if logger == nil {
			logger = log.Named("collect")
		}
		opts.Loader = sandbox.New(theme.NewLoader(), logger)
	}

	results := make([]*Result, len(files))
	errs := make([]error, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = ExtractStyles(ctx, files[i], opts)
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(files); j++ {
				errs[j] = ctx.Err()
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	var err error
	for _, e := range errs {
		err = multierr.Append(err, e)
	}
	return results, err
}
