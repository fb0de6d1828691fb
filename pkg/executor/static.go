package executor

import (
	"iter"
	"slices"
)

// StaticStream is a Stream over fixed output, for runners that replay
// recorded or simulated tool runs.
type StaticStream struct {
	lines []string
	err   error
	used  bool
}

// NewStaticStream returns a Stream yielding lines and then reporting err.
func NewStaticStream(lines []string, err error) *StaticStream {
	return &StaticStream{lines: slices.Clone(lines), err: err}
}

// Lines implements Stream.
func (s *StaticStream) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		if s.used {
			return
		}
		s.used = true
		for _, l := range s.lines {
			if !yield(l) {
				return
			}
		}
	}
}

// Wait implements Stream.
func (s *StaticStream) Wait() error {
	s.used = true
	return s.err
}
