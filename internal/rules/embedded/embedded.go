// Package embedded holds the compiled-in rule catalogue: a directory of
// YAML documents, one file per rule, embedded into the binary with
// go:embed so the tool ships a useful default catalogue with no external
// files required.
package embedded

import (
	"embed"
	"sort"
)

//go:embed *.yaml
var rulesFS embed.FS

// Names returns the embedded rule file names in a stable (sorted) order.
func Names() ([]string, error) {
	entries, err := rulesFS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the raw bytes of one embedded rule document.
func Read(name string) ([]byte, error) {
	return rulesFS.ReadFile(name)
}
