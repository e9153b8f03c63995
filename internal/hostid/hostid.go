// Package hostid supplies the two small facts the archiver's default output
// filename needs: the local hostname and the current time. Kept apart from
// cmd/yoink so the naming scheme is unit-testable without exec'ing the
// binary.
package hostid

import (
	"os"
	"time"
)

// Hostname returns the machine's hostname, consulting the environment
// first (HOSTNAME on Linux, COMPUTERNAME on Windows) the way a shell
// session would see it, falling back to os.Hostname and finally a fixed
// placeholder if even that fails.
func Hostname() string {
	if name := os.Getenv("HOSTNAME"); name != "" {
		return name
	}
	if name := os.Getenv("COMPUTERNAME"); name != "" {
		return name
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "unknown-host"
}

// NowUnixMilli returns the current time as Unix milliseconds.
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
