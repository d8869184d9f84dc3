package osc

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// patternChars are the characters with a special meaning in an OSC address pattern.
const patternChars = "*?,[]{}# "

// patternCache holds compiled address patterns keyed by pattern.
var patternCache sync.Map

// IsPattern reports whether addr contains OSC pattern characters.
func IsPattern(addr string) bool {
	return strings.ContainsAny(addr, "*?[]{}")
}

// compilePattern returns an anchored regexp.Regexp for the given OSC address pattern.
//
//	?        any single character except '/'
//	*        any sequence of zero or more characters except '/'
//	[abc]    any of the listed characters, '-' for ranges, leading '!' negates
//	{a,b}    any of the comma separated strings
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}

	var sb strings.Builder
	sb.WriteByte('^')

	inClass, inAlt := false, false
	// n counts the members written since '['; a leading '!' is not one.
	var n int
	negated := false
	for _, c := range pattern {
		switch {
		case inClass:
			switch {
			case c == ']':
				inClass = false
				sb.WriteByte(']')
			case c == '!' && n == 0 && !negated:
				// A negated class still never matches the part separator.
				negated = true
				sb.WriteString("^/")
				continue
			case c == '-' && n == 0:
				sb.WriteString(`\-`)
			case c == '-':
				sb.WriteByte('-')
			default:
				sb.WriteString(regexp.QuoteMeta(string(c)))
			}
			n++

		case c == '[':
			inClass = true
			n, negated = 0, false
			sb.WriteByte('[')

		case c == '{':
			if inAlt {
				return nil, fmt.Errorf("compilePattern: nested '{' in %q", pattern)
			}
			inAlt = true
			sb.WriteString("(?:")

		case c == '}' && inAlt:
			inAlt = false
			sb.WriteByte(')')

		case c == ',' && inAlt:
			sb.WriteByte('|')

		case c == '*':
			sb.WriteString("[^/]*")

		case c == '?':
			sb.WriteString("[^/]")

		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	if inClass || inAlt {
		return nil, fmt.Errorf("compilePattern: unterminated pattern %q", pattern)
	}
	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("compilePattern: %w", err)
	}
	patternCache.Store(pattern, re)
	return re, nil
}
