package collect

import (
	"regexp"
	"strings"
)

// matcher matches a candidate string against a pattern that is tried as a
// regular expression first and, if it fails to compile, falls back to a
// case-insensitive literal comparison. This mirrors how process-name rules
// and file-path patterns are both written in practice: most are literal
// paths or names, a minority are genuine regexes.
type matcher struct {
	re      *regexp.Regexp
	literal string
	isRegex bool
}

// regexMetaChars are the characters that, if present, mark a pattern as a
// genuine regular expression rather than a literal path or name. Backslash
// is deliberately excluded even though it is a regex escape character: on
// Windows it is the path separator, and nearly every literal path contains
// one, which would otherwise make this heuristic misclassify the common
// case as a pattern. "." and "$" are excluded too: a dotted extension
// ("auth.log") or an NTFS metadata name ("$MFT") is not a wildcard, and
// spec §4.4 defines "literal" as "no wildcard", not "compiles as a regex".
const regexMetaChars = `*+?()[]{}|^`

func newMatcher(pattern string) matcher {
	if strings.ContainsAny(pattern, regexMetaChars) {
		if re, err := regexp.Compile(pattern); err == nil {
			return matcher{re: re, isRegex: true}
		}
	}
	return matcher{literal: strings.ToLower(pattern)}
}

func (m matcher) Match(s string) bool {
	if m.isRegex {
		return m.re.MatchString(s)
	}
	return strings.ToLower(s) == m.literal
}

// isLiteral reports whether this matcher only ever matches one exact
// string. The file collector uses it to log a literal path that its direct
// existence check did not find.
func (m matcher) isLiteral() bool {
	return !m.isRegex
}
