package collect

import (
	"regexp"
	"strings"
)

// processMatcher matches a process name against a MemoryRule.ProcessNames
// entry. Unlike matcher, it always tries the pattern as a regex first: a
// bare process name such as "nc" compiles fine and, matched unanchored,
// matches "ncat" too, mirroring the original tool's substring behaviour.
// Only a pattern that fails to compile falls back to a case-insensitive
// exact literal comparison.
type processMatcher struct {
	re      *regexp.Regexp
	literal string
}

func newProcessMatcher(pattern string) processMatcher {
	if re, err := regexp.Compile("(?i)" + pattern); err == nil {
		return processMatcher{re: re}
	}
	return processMatcher{literal: strings.ToLower(pattern)}
}

func (m processMatcher) Match(name string) bool {
	if m.re != nil {
		return m.re.MatchString(name)
	}
	return strings.ToLower(name) == m.literal
}
