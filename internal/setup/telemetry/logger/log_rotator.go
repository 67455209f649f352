package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogRotator is an io.Writer that caps a log file at roughly its line budget.
// Once twice the budget has been written, the file is rewritten with only the newest lines.
type LogRotator struct {
	mu       sync.Mutex
	file     io.Writer
	buffer   *RingBuffer
	filePath string
}

// NewLogRotator wraps an open log file.
func NewLogRotator(file io.Writer, maxLines int, filePath string) *LogRotator {
	return &LogRotator{
		file:     file,
		buffer:   NewRingBuffer(maxLines),
		filePath: filePath,
	}
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		w.buffer.Push(line)
		if w.buffer.pending >= 2*w.buffer.Cap() {
			if err := w.compact(); err != nil {
				return n, fmt.Errorf("failed to rotate log file: %w", err)
			}
		}
	}

	return n, nil
}

// compact atomically replaces the file with the buffered lines and reopens it for appending.
func (w *LogRotator) compact() error {
	temp, err := os.CreateTemp(filepath.Dir(w.filePath), "rotate-*.log")
	if err != nil {
		return err
	}
	defer os.Remove(temp.Name())

	_, err = temp.WriteString(strings.Join(w.buffer.Lines(), "\n") + "\n")
	if err == nil {
		err = temp.Sync()
	}
	if closeErr := temp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if closer, ok := w.file.(io.Closer); ok {
		_ = closer.Close()
	}

	// Windows refuses to rename over an existing file
	_ = os.Remove(w.filePath)
	if err := os.Rename(temp.Name(), w.filePath); err != nil {
		return err
	}

	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.file = file
	w.buffer.pending = w.buffer.count

	return nil
}
