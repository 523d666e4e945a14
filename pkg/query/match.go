// pkg/query/match.go
package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher decides whether a string value satisfies a filter or wait
// condition. The built-in constructors cover the common cases; anything
// else can implement the interface directly.
type Matcher interface {
	MatchString(s string) bool
	String() string
}

type exactMatcher string

func (m exactMatcher) MatchString(s string) bool { return string(m) == s }
func (m exactMatcher) String() string            { return fmt.Sprintf("== %q", string(m)) }

// Exact matches only the identical string.
func Exact(want string) Matcher { return exactMatcher(want) }

type containsMatcher string

func (m containsMatcher) MatchString(s string) bool { return strings.Contains(s, string(m)) }
func (m containsMatcher) String() string            { return fmt.Sprintf("contains %q", string(m)) }

// Contains matches any string containing the given substring.
func Contains(substr string) Matcher { return containsMatcher(substr) }

type prefixMatcher string

func (m prefixMatcher) MatchString(s string) bool { return strings.HasPrefix(s, string(m)) }
func (m prefixMatcher) String() string            { return fmt.Sprintf("starts with %q", string(m)) }

// Prefix matches any string starting with the given prefix.
func Prefix(prefix string) Matcher { return prefixMatcher(prefix) }

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) MatchString(s string) bool { return m.re.MatchString(s) }
func (m regexMatcher) String() string            { return fmt.Sprintf("matches /%s/", m.re.String()) }

// Regex matches against a compiled regular expression.
func Regex(re *regexp.Regexp) Matcher { return regexMatcher{re: re} }
