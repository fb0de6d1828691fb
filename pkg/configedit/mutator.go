// Package configedit performs idempotent in-place edits of generated
// configuration source files.
//
// Every operation reads the whole file, computes the new content in memory and
// replaces the file atomically, so an observer sees either the old or the new
// content and never a partial write.
package configedit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strings"
)

// DefaultAnchor is the line a new scalar assignment is inserted before when
// the key is not yet assigned.
const DefaultAnchor = "USE_TZ = True"

var (
	// ErrFileMissing is returned when the target file does not exist.
	ErrFileMissing = errors.New("config file missing")

	// ErrBlockNotFound is returned when a named list block is absent or unterminated.
	ErrBlockNotFound = errors.New("list block not found")
)

// Result describes the effect of an edit.
type Result struct {
	Changed bool
	Added   []string
}

// Mutator edits a single configuration file.
type Mutator struct {
	path   string
	anchor string
}

// Option customizes a Mutator.
type Option func(*Mutator)

// WithAnchor sets the line SetScalar inserts new assignments before.
func WithAnchor(anchor string) Option {
	return func(m *Mutator) {
		m.anchor = anchor
	}
}

// New returns a Mutator bound to path.
func New(path string, opts ...Option) *Mutator {
	m := &Mutator{path: path, anchor: DefaultAnchor}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the file the mutator edits.
func (m *Mutator) Path() string {
	return m.path
}

// SetScalar makes `key = value` the only top-level assignment of key in the
// file. The first top-level assignment is replaced in place and later ones are
// removed. Indented assignments, such as those inside an if block, are
// rewritten in place with their indentation so the block keeps a body. With
// no assignment at all the line goes before the anchor line, or at the top of
// the file when there is no anchor. value is written verbatim, so string values
// must carry their own quotes.
func (m *Mutator) SetScalar(key, value string) (Result, error) {
	content, mode, err := m.read()
	if err != nil {
		return Result{}, err
	}

	keyPattern := regexp.MustCompile(`^([ \t]*)` + regexp.QuoteMeta(key) + `\s*=([^=]|$)`)
	assignment := key + " = " + value

	lines := strings.SplitAfter(content, "\n")
	out := make([]string, 0, len(lines)+1)
	found, topLevel := false, false
	for _, line := range lines {
		match := keyPattern.FindStringSubmatch(line)
		if match == nil {
			out = append(out, line)
			continue
		}
		indent := match[1]
		if indent == "" {
			if topLevel {
				continue
			}
			topLevel = true
		}
		found = true
		out = append(out, indent+assignment+lineEnding(line))
	}

	if !found {
		idx := slices.IndexFunc(out, func(line string) bool {
			return strings.HasPrefix(strings.TrimSpace(line), m.anchor)
		})
		if idx >= 0 {
			out = slices.Insert(out, idx, assignment+"\n")
		} else {
			out = slices.Insert(out, 0, assignment+"\n")
		}
	}

	updated := strings.Join(out, "")
	if updated == content {
		return Result{}, nil
	}
	if err := m.write(updated, mode); err != nil {
		return Result{}, err
	}
	return Result{Changed: true}, nil
}

// AppendToListBlock adds each value missing from the list literal assigned to
// block. Values already present, in any quoting style, are left alone and the
// file is not rewritten when nothing is missing.
func (m *Mutator) AppendToListBlock(block string, values []string) (Result, error) {
	content, mode, err := m.read()
	if err != nil {
		return Result{}, err
	}

	start := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(block) + `\s*=\s*\[`)
	loc := start.FindStringIndex(content)
	if loc == nil {
		return Result{}, fmt.Errorf("%w: %s in %s", ErrBlockNotFound, block, m.path)
	}
	open := loc[1] - 1

	closeIdx, lastItem, existing, ok := scanList(content, open)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s in %s is not terminated", ErrBlockNotFound, block, m.path)
	}

	present := make(map[string]struct{}, len(existing)+len(values))
	for _, e := range existing {
		present[e] = struct{}{}
	}
	var added []string
	for _, v := range values {
		if _, ok := present[v]; ok {
			continue
		}
		present[v] = struct{}{}
		added = append(added, v)
	}
	if len(added) == 0 {
		return Result{}, nil
	}

	inner := content[open+1 : closeIdx]
	body := strings.TrimRight(inner, " \t\r\n")
	tail := inner[len(body):]
	if lastItem > open && content[lastItem] != ',' {
		// The comma goes right after the last item, ahead of any comment.
		cut := lastItem - open
		body = body[:cut] + "," + body[cut:]
	}
	closeIndent := ""
	if nl := strings.LastIndexByte(tail, '\n'); nl >= 0 {
		closeIndent = tail[nl+1:]
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	for _, v := range added {
		fmt.Fprintf(&b, "    '%s',\n", v)
	}
	b.WriteString(closeIndent)

	updated := content[:open+1] + b.String() + content[closeIdx:]
	if err := m.write(updated, mode); err != nil {
		return Result{}, err
	}
	return Result{Changed: true, Added: added}, nil
}

// InjectPreludeOnce places prelude at the top of the file unless marker is
// already present. An interpreter line (#!) stays first.
func (m *Mutator) InjectPreludeOnce(marker, prelude string) (Result, error) {
	if !strings.Contains(prelude, marker) {
		return Result{}, fmt.Errorf("prelude does not contain marker %q", marker)
	}

	content, mode, err := m.read()
	if err != nil {
		return Result{}, err
	}
	if strings.Contains(content, marker) {
		return Result{}, nil
	}

	if !strings.HasSuffix(prelude, "\n") {
		prelude += "\n"
	}

	insertAt := 0
	if strings.HasPrefix(content, "#!") {
		if nl := strings.IndexByte(content, '\n'); nl >= 0 {
			insertAt = nl + 1
		} else {
			content += "\n"
			insertAt = len(content)
		}
	}

	updated := content[:insertAt] + prelude + content[insertAt:]
	if err := m.write(updated, mode); err != nil {
		return Result{}, err
	}
	return Result{Changed: true}, nil
}

func (m *Mutator) read() (string, os.FileMode, error) {
	info, err := os.Stat(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0, fmt.Errorf("%w: %s", ErrFileMissing, m.path)
		}
		return "", 0, fmt.Errorf("failed to stat %s: %w", m.path, err)
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", m.path, err)
	}
	return string(data), info.Mode().Perm(), nil
}

func (m *Mutator) write(content string, mode os.FileMode) error {
	return WriteFileAtomic(m.path, []byte(content), mode)
}

// scanList walks the bracketed literal starting at content[open] and returns
// the index of its balancing close bracket, the index of the last byte of the
// last item (open when the list is empty) and the top-level string entries.
// Brackets inside strings and comments do not count.
func scanList(content string, open int) (int, int, []string, bool) {
	var entries []string
	depth := 0
	last := open
	for i := open; i < len(content); i++ {
		switch c := content[i]; c {
		case '#':
			nl := strings.IndexByte(content[i:], '\n')
			if nl < 0 {
				return -1, last, entries, false
			}
			i += nl
		case ' ', '\t', '\r', '\n':
		case '\'', '"':
			j := i + 1
			for j < len(content) && content[j] != c && content[j] != '\n' {
				if content[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(content) || content[j] != c {
				return -1, last, entries, false
			}
			if depth == 1 {
				entries = append(entries, content[i+1:j])
			}
			i = j
			last = j
		case '[', '(', '{':
			depth++
			if i > open {
				last = i
			}
		case ']', ')', '}':
			depth--
			if depth == 0 {
				return i, last, entries, true
			}
			last = i
		default:
			last = i
		}
	}
	return -1, last, entries, false
}

func lineEnding(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	default:
		return ""
	}
}
