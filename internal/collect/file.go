// Package collect implements the file and memory collectors (the engine
// that turns a rule into a list of artefact paths) and the façade that ties
// the rule catalogue and both collectors together.
package collect

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/medioxor/yoink/internal/artefact"
	"github.com/medioxor/yoink/internal/logging"
	"github.com/medioxor/yoink/internal/platform"
	"github.com/medioxor/yoink/internal/rawfs"
	"github.com/medioxor/yoink/internal/rules"
)

// maxWalkWorkers bounds how many directory trees this tool walks at once,
// capped well below a typical core count so collection does not starve the
// system it is running on.
const maxWalkWorkers = 12

// FileCollector resolves FileRule path patterns into concrete artefact
// paths. Every pattern gets both a direct existence check and a filesystem
// walk that matches entries against it.
type FileCollector struct {
	fs  rawfs.RawFilesystem
	log *logging.Logger
}

// NewFileCollector constructs a FileCollector backed by fs.
func NewFileCollector(fs rawfs.RawFilesystem) *FileCollector {
	return &FileCollector{fs: fs, log: logging.New("collect.file")}
}

// CollectByRule returns every artefact path matching rule, deduplicated. A
// path may carry an alternate-data-stream suffix (":streamname") if the
// rule's pattern did.
func (c *FileCollector) CollectByRule(ctx context.Context, rule rules.FileRule) []string {
	var found []string
	for _, pattern := range rule.Paths {
		found = append(found, c.collectPattern(ctx, pattern, rule.RecursionDepth)...)
	}
	return artefact.Dedup(found)
}

func (c *FileCollector) collectPattern(ctx context.Context, pattern string, depth uint) []string {
	filePath, stream := artefact.ParseStream(pattern)
	m := newMatcher(filePath)

	var found []string
	if c.fs.Exists(filePath) {
		found = append(found, pattern)
	} else if m.isLiteral() {
		c.log.Debugf("literal artefact not found: %s", filePath)
	}

	// Always walk too, even for a literal pattern: a direct existence check
	// can miss paths the rawfs layer resolves differently than a directory
	// walk would (e.g. NTFS metadata files such as $MFT), and the walk can
	// in turn miss a path a direct lookup finds. CollectByRule dedups.
	found = append(found, c.walkForMatches(ctx, filePath, stream, m, depth)...)
	return found
}

// walkForMatches runs one bounded-concurrency walk per search root (each
// drive on Windows, "/" elsewhere), matching both the full path and the
// base name against m, and stopping descent past depth directory levels
// below the root. depth 0 means the root itself only, with no recursion
// into subdirectories.
func (c *FileCollector) walkForMatches(ctx context.Context, pattern, stream string, m matcher, depth uint) []string {
	roots := searchRoots()
	sem := make(chan struct{}, maxWalkWorkers)
	results := make(chan string)
	var wg sync.WaitGroup

	for _, root := range roots {
		wg.Add(1)
		sem <- struct{}{}
		go func(root string) {
			defer wg.Done()
			defer func() { <-sem }()
			c.walkRoot(ctx, root, stream, m, depth, results)
		}(root)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []string
	for hit := range results {
		out = append(out, hit)
	}
	return out
}

func (c *FileCollector) walkRoot(ctx context.Context, root, stream string, m matcher, depth uint, results chan<- string) {
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Permission errors and vanished entries are routine during a
			// full filesystem walk; skip and keep going.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		pathDepth := strings.Count(filepath.Clean(path), string(filepath.Separator))
		if pathDepth-rootDepth > int(depth) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if m.Match(path) || m.Match(d.Name()) {
			out := path
			if stream != "" {
				out = path + ":" + stream
			}
			select {
			case results <- out:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	if err != nil && err != context.Canceled {
		c.log.Debugf("walk of %s ended early: %v", root, err)
	}
}

// platformRootPrefix reports the root search prefix matching the running
// platform. Nothing in this module calls it.
func platformRootPrefix() string {
	if platform.IsWindows() {
		return `\`
	}
	return "/"
}
