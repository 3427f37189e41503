// Package weblog mirrors the control loop's status lines to a browser.
//
// It keeps a bounded, append-only buffer of the most recent lines and
// serves them over a server-sent-events stream: whenever the buffer
// changes, connected clients receive the full current buffer as a JSON
// array. The loop is the only writer; any number of stream clients read
// concurrently.
package weblog

import "sync"

// DefaultMaxLines bounds the mirrored history.
const DefaultMaxLines = 50

// Buffer is a length-bounded append-only line buffer safe for one writer
// and many readers.
type Buffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	version uint64
}

// NewBuffer creates a buffer keeping at most max lines. A max of zero or
// less falls back to DefaultMaxLines.
func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = DefaultMaxLines
	}
	return &Buffer{max: max}
}

// Append adds a line, dropping the oldest ones beyond the bound.
func (b *Buffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = append(b.lines, line)
	if len(b.lines) > b.max {
		b.lines = b.lines[len(b.lines)-b.max:]
	}
	b.version++
}

// Snapshot returns a copy of the current lines and a version counter that
// increases on every append. Stream handlers use the version to detect
// change without comparing contents.
func (b *Buffer) Snapshot() ([]string, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := make([]string, len(b.lines))
	copy(lines, b.lines)
	return lines, b.version
}

// Len returns the number of lines currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
