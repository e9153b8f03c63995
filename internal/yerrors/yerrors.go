// Package yerrors declares the sentinel error kinds shared across the
// collection, NTFS, and archiving packages so callers can branch with
// errors.Is instead of matching on strings.
package yerrors

import "errors"

// Sentinel error kinds, one per error kind named in the collector design.
var (
	ErrRuleParseError     = errors.New("rule parse error")
	ErrRuleNotFound       = errors.New("rule not found")
	ErrDuplicateRule      = errors.New("duplicate rule")
	ErrWrongPlatformRule  = errors.New("rule platform does not match current platform")
	ErrWrongRuleKind      = errors.New("rule kind does not match expected variant")
	ErrVolumeOpenError    = errors.New("failed to open volume")
	ErrNtfsParseError     = errors.New("failed to parse ntfs structure")
	ErrPathNotFound       = errors.New("path not found")
	ErrStreamNotFound     = errors.New("stream not found")
	ErrAttributeMissing   = errors.New("required attribute missing")
	ErrProcessEnumError   = errors.New("failed to enumerate processes")
	ErrDumpError          = errors.New("failed to write memory dump")
	ErrArchiveIoError     = errors.New("archive i/o error")
	ErrNothingToCompress  = errors.New("nothing to compress")
	ErrInvalidOutputPath  = errors.New("invalid output path")
	ErrInvalidSectorSize  = errors.New("sector size must be a power of two")
	ErrUnsupportedSeek    = errors.New("seek from end is unsupported")
)
