// Package artefact hosts the small, pure helpers shared by the file
// collector and the archiver for artefact-string handling: NTFS stream
// suffix parsing, drive-letter hygiene, and order-preserving deduplication.
package artefact

import "strings"

// ParseStream splits a path that may carry a trailing NTFS alternate data
// stream suffix (":streamName") from its file path.
//
// A colon at index 1 is the drive-letter separator ("C:\\foo") and never a
// stream marker. Any other trailing colon splits the path from the stream
// name. Paths with no colon, or only the drive-letter colon, return an
// empty stream name.
func ParseStream(path string) (filePath string, stream string) {
	pos := strings.LastIndex(path, ":")
	if pos == -1 || pos == 1 {
		return path, ""
	}
	return path[:pos], path[pos+1:]
}

// Dedup removes duplicate artefact strings, keeping the first occurrence of
// each and preserving that first-occurrence order.
func Dedup(artefacts []string) []string {
	seen := make(map[string]struct{}, len(artefacts))
	out := make([]string, 0, len(artefacts))
	for _, a := range artefacts {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// StripDriveColon removes the drive-letter colon from a Windows path, e.g.
// "C:\\Windows\\System32\\config\\SAM" becomes "C\\Windows\\System32\\config\\SAM".
// It only strips a colon found at index 1, matching drive-letter hygiene:
// "exactly one drive-letter colon" per artefact.
func StripDriveColon(path string) string {
	if len(path) > 1 && path[1] == ':' {
		return path[:1] + path[2:]
	}
	return path
}
