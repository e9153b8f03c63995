package collect

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/medioxor/yoink/internal/rules"
)

type fakeRawFS struct {
	existing map[string]bool
}

func (f *fakeRawFS) Exists(path string) bool { return f.existing[path] }
func (f *fakeRawFS) ModTime(path string) (time.Time, error) {
	return time.Time{}, nil
}
func (f *fakeRawFS) OpenStream(path, stream string) (io.ReadCloser, int64, error) {
	return nil, 0, os.ErrNotExist
}
func (f *fakeRawFS) Close() error { return nil }

func TestCollectByRuleLiteralPathFound(t *testing.T) {
	fs := &fakeRawFS{existing: map[string]bool{`/etc/passwd`: true}}
	c := NewFileCollector(fs)
	rule := rules.FileRule{Paths: []string{"/etc/passwd"}}

	got := c.CollectByRule(context.Background(), rule)
	if len(got) != 1 || got[0] != "/etc/passwd" {
		t.Errorf("CollectByRule = %v, want [/etc/passwd]", got)
	}
}

func TestCollectByRuleLiteralPathMissing(t *testing.T) {
	fs := &fakeRawFS{existing: map[string]bool{}}
	c := NewFileCollector(fs)
	rule := rules.FileRule{Paths: []string{"/does/not/exist"}}

	got := c.CollectByRule(context.Background(), rule)
	if len(got) != 0 {
		t.Errorf("CollectByRule = %v, want none", got)
	}
}

func TestCollectByRuleDedupsAcrossPatterns(t *testing.T) {
	fs := &fakeRawFS{existing: map[string]bool{`/etc/passwd`: true}}
	c := NewFileCollector(fs)
	rule := rules.FileRule{Paths: []string{"/etc/passwd", "/etc/passwd"}}

	got := c.CollectByRule(context.Background(), rule)
	if len(got) != 1 {
		t.Errorf("CollectByRule = %v, want one deduped entry", got)
	}
}

func TestWalkRootMatchesBaseName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secrets.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "irrelevant.log"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewFileCollector(&fakeRawFS{})
	m := newMatcher("secrets.txt")
	results := make(chan string, 8)
	c.walkRoot(context.Background(), dir, "", m, 1, results)
	close(results)

	var hits []string
	for h := range results {
		hits = append(hits, h)
	}
	if len(hits) != 1 || filepath.Base(hits[0]) != "secrets.txt" {
		t.Errorf("walkRoot hits = %v, want exactly secrets.txt", hits)
	}
}

func TestWalkRootRespectsRecursionDepth(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "deep.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewFileCollector(&fakeRawFS{})
	m := newMatcher("deep.txt")
	results := make(chan string, 8)
	c.walkRoot(context.Background(), dir, "", m, 1, results)
	close(results)

	var hits []string
	for h := range results {
		hits = append(hits, h)
	}
	if len(hits) != 0 {
		t.Errorf("walkRoot hits = %v, want none: depth limit of 1 should exclude a file 3 levels deep", hits)
	}
}

func TestWalkRootAppendsStreamSuffix(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewFileCollector(&fakeRawFS{})
	m := newMatcher("file.txt")
	results := make(chan string, 8)
	c.walkRoot(context.Background(), dir, "ads", m, 1, results)
	close(results)

	hit := <-results
	want := filepath.Join(dir, "file.txt") + ":ads"
	if hit != want {
		t.Errorf("walkRoot hit = %q, want %q", hit, want)
	}
}
