package collect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/medioxor/yoink/internal/minidump"
)

func TestMatchesByPID(t *testing.T) {
	c := NewMemoryCollector(t.TempDir())
	proc := minidump.Process{PID: 4242, Name: "unrelated"}
	pidSet := map[uint32]struct{}{4242: {}}

	if !c.matches(proc, nil, pidSet) {
		t.Error("expected PID match")
	}
}

func TestMatchesByName(t *testing.T) {
	c := NewMemoryCollector(t.TempDir())
	proc := minidump.Process{PID: 1, Name: "nc"}
	nameMatchers := []processMatcher{newProcessMatcher("nc")}

	if !c.matches(proc, nameMatchers, map[uint32]struct{}{}) {
		t.Error("expected name match")
	}
}

func TestMatchesNoneWhenNeitherMatches(t *testing.T) {
	c := NewMemoryCollector(t.TempDir())
	proc := minidump.Process{PID: 1, Name: "bash"}
	nameMatchers := []processMatcher{newProcessMatcher("nc")}

	if c.matches(proc, nameMatchers, map[uint32]struct{}{99: {}}) {
		t.Error("expected no match")
	}
}

func TestCloseRemovesTrackedDumpFiles(t *testing.T) {
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "proc_1.dmp")
	if err := os.WriteFile(dumpPath, []byte("dump"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewMemoryCollector(dir)
	c.tempFile = append(c.tempFile, dumpPath)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dumpPath); !os.IsNotExist(err) {
		t.Error("expected dump file to be removed")
	}
}

func TestCloseReportsAlreadyRemovedFile(t *testing.T) {
	dir := t.TempDir()
	c := NewMemoryCollector(dir)
	c.tempFile = append(c.tempFile, filepath.Join(dir, "already-gone.dmp"))

	if err := c.Close(); err == nil {
		t.Error("expected an error for a file that no longer exists")
	}
}
