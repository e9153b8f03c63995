package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/medioxor/yoink/internal/logging"
	"github.com/medioxor/yoink/internal/minidump"
	"github.com/medioxor/yoink/internal/rules"
)

// MemoryCollector dumps the memory of processes matching a MemoryRule to
// temporary files and tracks them so they can be removed once archived.
type MemoryCollector struct {
	log      *logging.Logger
	mu       sync.Mutex
	dumpDir  string
	tempFile []string
}

// NewMemoryCollector constructs a MemoryCollector that writes dumps under
// dumpDir (the OS temp directory if empty).
func NewMemoryCollector(dumpDir string) *MemoryCollector {
	if dumpDir == "" {
		dumpDir = os.TempDir()
	}
	return &MemoryCollector{log: logging.New("collect.memory"), dumpDir: dumpDir}
}

// CollectByRule dumps every process matching rule's process names or PIDs
// and returns the resulting dump file paths. A process that fails to dump
// (commonly: protected, or already exited) is logged and skipped rather
// than failing the whole rule.
func (c *MemoryCollector) CollectByRule(rule rules.MemoryRule, now func() int64) []string {
	processes, err := minidump.ListProcesses()
	if err != nil {
		c.log.Warnf("enumerating processes: %v", err)
		return nil
	}

	nameMatchers := make([]processMatcher, len(rule.ProcessNames))
	for i, name := range rule.ProcessNames {
		nameMatchers[i] = newProcessMatcher(name)
	}
	pidSet := make(map[uint32]struct{}, len(rule.PIDs))
	for _, pid := range rule.PIDs {
		pidSet[pid] = struct{}{}
	}

	var dumps []string
	for _, proc := range processes {
		if !c.matches(proc, nameMatchers, pidSet) {
			continue
		}
		path, err := c.dump(proc, now())
		if err != nil {
			c.log.Warnf("dumping pid %d (%s): %v", proc.PID, proc.Name, err)
			continue
		}
		dumps = append(dumps, path)
	}
	return dumps
}

func (c *MemoryCollector) matches(proc minidump.Process, nameMatchers []processMatcher, pidSet map[uint32]struct{}) bool {
	if _, ok := pidSet[proc.PID]; ok {
		return true
	}
	for _, m := range nameMatchers {
		if m.Match(proc.Name) {
			return true
		}
	}
	return false
}

func (c *MemoryCollector) dump(proc minidump.Process, nowUnixMillis int64) (string, error) {
	fileName := fmt.Sprintf("%s_%d.dmp", proc.Name, nowUnixMillis)
	outputPath := filepath.Join(c.dumpDir, fileName)
	if err := minidump.Write(proc.PID, outputPath); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.tempFile = append(c.tempFile, outputPath)
	c.mu.Unlock()
	return outputPath, nil
}

// Close removes every temporary dump file this collector wrote. Go has no
// destructor to run this automatically, unlike the Drop impl it mirrors, so
// callers must defer it explicitly.
func (c *MemoryCollector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, path := range c.tempFile {
		if err := os.Remove(path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.tempFile = nil
	return firstErr
}
