//go:build windows

package minidump

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/medioxor/yoink/internal/yerrors"
)

var (
	modPsapi   = windows.NewLazySystemDLL("psapi.dll")
	modDbghelp = windows.NewLazySystemDLL("dbghelp.dll")

	procEnumProcesses       = modPsapi.NewProc("EnumProcesses")
	procGetModuleBaseNameW  = modPsapi.NewProc("GetModuleBaseNameW")
	procMiniDumpWriteDump   = modDbghelp.NewProc("MiniDumpWriteDump")
)

const maxProcesses = 4096

// ListProcesses enumerates running PIDs via EnumProcesses and resolves each
// one's image base name, skipping processes this tool cannot open (most
// commonly protected system processes).
func ListProcesses() ([]Process, error) {
	pids := make([]uint32, maxProcesses)
	var bytesReturned uint32

	ret, _, _ := procEnumProcesses.Call(
		uintptr(unsafe.Pointer(&pids[0])),
		uintptr(len(pids)*4),
		uintptr(unsafe.Pointer(&bytesReturned)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("%w: EnumProcesses failed", yerrors.ErrProcessEnumError)
	}

	count := int(bytesReturned) / 4
	var out []Process
	for _, pid := range pids[:count] {
		if pid == 0 {
			continue
		}
		handle, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, pid)
		if err != nil {
			continue
		}
		name := moduleBaseName(handle)
		windows.CloseHandle(handle)
		if name == "" {
			continue
		}
		out = append(out, Process{PID: pid, Name: name})
	}
	return out, nil
}

func moduleBaseName(handle windows.Handle) string {
	buf := make([]uint16, 260)
	ret, _, _ := procGetModuleBaseNameW.Call(
		uintptr(handle),
		0,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if ret == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:ret])
}

// Write dumps the address space of pid to outputPath using dbghelp's
// MiniDumpWriteDump, the same API Microsoft's own diagnostic tools use.
func Write(pid uint32, outputPath string) error {
	handle, err := windows.OpenProcess(
		windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ,
		false,
		pid,
	)
	if err != nil {
		return fmt.Errorf("%w: opening process %d: %v", yerrors.ErrDumpError, pid, err)
	}
	defer windows.CloseHandle(handle)

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", yerrors.ErrDumpError, err)
	}
	defer file.Close()

	const miniDumpWithFullMemory = 0x00000002

	ret, _, callErr := procMiniDumpWriteDump.Call(
		uintptr(handle),
		uintptr(pid),
		file.Fd(),
		uintptr(miniDumpWithFullMemory),
		0, 0, 0,
	)
	if ret == 0 {
		return fmt.Errorf("%w: MiniDumpWriteDump failed: %v", yerrors.ErrDumpError, callErr)
	}
	return nil
}
