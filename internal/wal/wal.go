// Package wal implements the append-only write-ahead log: one
// command-JSON per line, flushed to disk before the append is
// acknowledged. Replaying the file in order against an empty engine
// rebuilds the dictionary.
package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pouchkv/pouch/pkg/command"
	"go.uber.org/zap"
)

// ErrEmptyLog marks a zero-length log at replay time. It is
// informational — the normal first-boot case — not a failure.
var ErrEmptyLog = errors.New("wal: log is empty")

// WAL is the durable journal of mutating commands. Appends are
// globally serialised behind one mutex; that single writer is what
// makes log order equal apply order.
type WAL struct {
	log  *zap.Logger
	path string

	mu   sync.Mutex
	file *os.File
}

// Open creates or opens the log file for appending.
func Open(log *zap.Logger, path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open wal %s: %w", path, err)
	}
	return &WAL{log: log.Named("wal"), path: path, file: file}, nil
}

// Append writes one record and syncs it to disk before returning.
// The caller must not apply the command unless Append succeeded.
func (w *WAL) Append(cmd command.Command) error {
	data, err := command.Encode(cmd)
	if err != nil {
		return fmt.Errorf("encode wal record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write wal record: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync wal: %w", err)
	}
	return nil
}

// Replay reads the log from the start and hands each record to apply
// in file order, returning the number of records replayed. A partial
// trailing line (a crash mid-append) is discarded; a complete line
// that does not decode aborts the replay. A zero-length log returns
// (0, ErrEmptyLog).
func (w *WAL) Replay(apply func(command.Command)) (int, error) {
	file, err := os.Open(w.path)
	if err != nil {
		return 0, fmt.Errorf("open wal for replay: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat wal: %w", err)
	}
	if info.Size() == 0 {
		return 0, ErrEmptyLog
	}

	r := bufio.NewReader(file)
	count := 0
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			if strings.TrimSpace(line) != "" {
				w.log.Warn("discarding partial trailing record",
					zap.Int("replayed", count), zap.Int("bytes", len(line)))
			}
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("read wal: %w", err)
		}

		cmd, err := command.Decode([]byte(strings.TrimSuffix(line, "\n")))
		if err != nil {
			return count, fmt.Errorf("wal record %d: %w", count+1, err)
		}
		apply(cmd)
		count++
	}
}

// Close syncs and closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Sync(); err != nil {
		w.log.Warn("sync on close failed", zap.Error(err))
	}
	return w.file.Close()
}
