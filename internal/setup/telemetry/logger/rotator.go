// Package logger provides a file writer that keeps only the newest log lines.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Rotator appends log output to a file and, once twice the line cap has been
// written, rewrites the file so that only the newest lines remain.
type Rotator struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	tail    *lineRing
	written int
}

// Open opens or creates path for appending. maxLines below 1 disables compaction.
func Open(path string, maxLines int) (*Rotator, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &Rotator{
		file: file,
		path: path,
		tail: newLineRing(maxLines),
	}, nil
}

// Write implements io.Writer.
func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.file.Write(p)
	if err != nil || r.tail.limit < 1 {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		r.tail.push(line)
		r.written++

		if r.written >= 2*r.tail.limit {
			if err := r.compact(); err != nil {
				return n, fmt.Errorf("failed to compact log file: %w", err)
			}
			r.written = r.tail.len()
		}
	}

	return n, nil
}

// Sync flushes the file.
func (r *Rotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Sync()
}

// Close closes the file.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// compact replaces the file with the buffered tail through a temporary file.
func (r *Rotator) compact() error {
	temp, err := os.CreateTemp(filepath.Dir(r.path), ".compact-*")
	if err != nil {
		return err
	}

	if _, err := io.WriteString(temp, strings.Join(r.tail.lines(), "\n")+"\n"); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return err
	}

	r.file.Close()

	if err := os.Rename(temp.Name(), r.path); err != nil {
		return err
	}

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	r.file = file

	return nil
}

// lineRing holds the newest limit lines.
type lineRing struct {
	buf   []string
	start int
	limit int
}

func newLineRing(limit int) *lineRing {
	return &lineRing{limit: limit, buf: make([]string, 0, max(limit, 0))}
}

func (l *lineRing) push(line string) {
	if len(l.buf) < l.limit {
		l.buf = append(l.buf, line)
		return
	}
	l.buf[l.start] = line
	l.start = (l.start + 1) % l.limit
}

func (l *lineRing) len() int {
	return len(l.buf)
}

// lines returns the buffered lines oldest first.
func (l *lineRing) lines() []string {
	out := make([]string, 0, len(l.buf))
	out = append(out, l.buf[l.start:]...)
	return append(out, l.buf[:l.start]...)
}
