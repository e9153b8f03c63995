// Package platform centralises the runtime.GOOS branching the rule model
// needs: rule documents carry a platform string of "windows" or "linux" and
// every lookup compares against the host's own value.
package platform

import "runtime"

// Windows and Linux are the two platform strings a Rule document may carry.
const (
	Windows = "windows"
	Linux   = "linux"
)

// Current returns the platform string for the host this binary is running
// on. Any GOOS other than "windows" is treated as the Linux/unix contract,
// matching spec.md's two-platform scope.
func Current() string {
	if runtime.GOOS == "windows" {
		return Windows
	}
	return Linux
}

// IsWindows reports whether the current host is Windows.
func IsWindows() bool {
	return Current() == Windows
}
