//go:build !windows

package minidump

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/medioxor/yoink/internal/yerrors"
)

// ListProcesses scans /proc for numeric directories and reads each
// process's cmdline (falling back to comm) for its name.
func ListProcesses() ([]Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrProcessEnumError, err)
	}

	var out []Process
	for _, entry := range entries {
		pid, err := strconv.ParseUint(entry.Name(), 10, 32)
		if err != nil {
			continue
		}
		name := processName(uint32(pid))
		if name == "" {
			continue
		}
		out = append(out, Process{PID: uint32(pid), Name: name})
	}
	return out, nil
}

func processName(pid uint32) string {
	cmdline, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err == nil {
		fields := strings.Split(string(cmdline), "\x00")
		if len(fields) > 0 && fields[0] != "" {
			return filepath.Base(fields[0])
		}
	}
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(comm))
}

// Write produces a best-effort memory snapshot of pid: the contents of
// every readable region listed in /proc/<pid>/maps, concatenated after a
// plain-text region table. This is not a minidump-format file; it exists so
// the memory collector has something to write on platforms where no
// standard dump format or API is available.
func Write(pid uint32, outputPath string) error {
	mapsPath := fmt.Sprintf("/proc/%d/maps", pid)
	mapsFile, err := os.Open(mapsPath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", yerrors.ErrDumpError, mapsPath, err)
	}
	defer mapsFile.Close()

	memPath := fmt.Sprintf("/proc/%d/mem", pid)
	mem, err := os.Open(memPath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", yerrors.ErrDumpError, memPath, err)
	}
	defer mem.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", yerrors.ErrDumpError, err)
	}
	defer out.Close()

	scanner := bufio.NewScanner(mapsFile)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, err1 := strconv.ParseInt(bounds[0], 16, 64)
		end, err2 := strconv.ParseInt(bounds[1], 16, 64)
		if err1 != nil || err2 != nil || end <= start {
			continue
		}
		perms := ""
		if len(fields) > 1 {
			perms = fields[1]
		}
		if !strings.HasPrefix(perms, "r") {
			continue
		}

		fmt.Fprintf(out, "# %s (%d bytes)\n", line, end-start)
		buf := make([]byte, end-start)
		n, _ := mem.ReadAt(buf, start)
		out.Write(buf[:n])
	}
	return scanner.Err()
}
