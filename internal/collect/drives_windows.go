//go:build windows

package collect

import "golang.org/x/sys/windows"

// searchRoots returns every mounted drive's root path, e.g. `C:\`, `D:\`.
func searchRoots() []string {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil
	}
	var roots []string
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := byte('A' + i)
		roots = append(roots, string(letter)+`:\`)
	}
	return roots
}
