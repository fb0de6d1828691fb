// Package sanitize turns untrusted user input into names that are safe to use
// as directory names and as importable module identifiers.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Rejected is returned when an input cannot be turned into a usable name.
type Rejected struct {
	Input  string
	Reason string
}

func (r *Rejected) Error() string {
	return fmt.Sprintf("rejected name %q: %s", r.Input, r.Reason)
}

// ProjectName returns a filesystem-safe token for raw.
//
// Non-ASCII characters are folded to their ASCII base form or dropped, path
// separators are treated as whitespace, whitespace runs become a single
// underscore and anything outside [A-Za-z0-9._-] is removed. Leading and
// trailing dots and underscores are stripped, so the result can never walk
// out of its parent directory.
func ProjectName(raw string) (string, error) {
	name := strings.Trim(clean(raw), "._")
	if name == "" {
		return "", &Rejected{Input: raw, Reason: "empty after sanitization"}
	}
	return name, nil
}

// ModuleName returns raw as a legal module identifier. Only dots are trimmed
// from the ends, so a leading underscore survives. The cleaned value must
// start with a letter or underscore and contain only letters, digits and
// underscores.
func ModuleName(raw string) (string, error) {
	name := strings.Trim(clean(raw), ".")
	if name == "" {
		return "", &Rejected{Input: raw, Reason: "empty after sanitization"}
	}
	if !IsIdentifier(name) {
		return "", &Rejected{Input: raw, Reason: "not a valid identifier"}
	}
	return name, nil
}

// ModuleNames splits a comma separated list and sanitizes every entry.
// Blank entries are ignored and duplicates keep their first position.
func ModuleNames(csv string) ([]string, []*Rejected) {
	var (
		names    []string
		rejected []*Rejected
		seen     = make(map[string]struct{})
	)
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, err := ModuleName(part)
		if err != nil {
			rejected = append(rejected, err.(*Rejected))
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, rejected
}

// IsIdentifier reports whether s has the shape of a module identifier.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func clean(raw string) string {
	var ascii strings.Builder
	for _, r := range norm.NFKD.String(raw) {
		if r > unicode.MaxASCII {
			continue
		}
		if r == '/' || r == '\\' {
			r = ' '
		}
		ascii.WriteRune(r)
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var b strings.Builder
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
