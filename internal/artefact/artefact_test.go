package artefact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStream(t *testing.T) {
	tests := []struct {
		path       string
		wantPath   string
		wantStream string
	}{
		{`C:\foo\bar:ads`, `C:\foo\bar`, "ads"},
		{`C:\foo\bar`, `C:\foo\bar`, ""},
		{`C:\foo\bar:`, `C:\foo\bar`, ""},
		{`/etc/passwd`, `/etc/passwd`, ""},
	}
	for _, tt := range tests {
		path, stream := ParseStream(tt.path)
		assert.Equal(t, tt.wantPath, path, tt.path)
		assert.Equal(t, tt.wantStream, stream, tt.path)
	}
}

func TestParseStreamPreservesDriveColon(t *testing.T) {
	// The drive-letter colon at index 1 must never be mistaken for a
	// stream separator.
	path, stream := ParseStream(`C:\$MFT`)
	assert.Equal(t, `C:\$MFT`, path)
	assert.Equal(t, "", stream)
}

func TestDedupPreservesOrder(t *testing.T) {
	in := []string{"a", "b", "a", "c", "b"}
	assert.Equal(t, []string{"a", "b", "c"}, Dedup(in))
}

func TestStripDriveColon(t *testing.T) {
	assert.Equal(t, `C\Windows`, StripDriveColon(`C:\Windows`))
	assert.Equal(t, `relative\path`, StripDriveColon(`relative\path`))
}
