//go:build !windows

package collect

// searchRoots returns the single filesystem root to search from.
func searchRoots() []string {
	return []string{"/"}
}
