package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultDest is where the report is written when no destination is configured.
const DefaultDest = "./performanceBudget.json"

// ErrWriterClosed is returned by Submit after Close.
var ErrWriterClosed = errors.New("report writer is closed")

// Saver persists a document at a path, creating parent directories as needed.
type Saver interface {
	SaveFile(filePath string, content []byte) error
}

// Writer persists report snapshots on a single goroutine. At most one write is
// in flight and at most one snapshot waits behind it. A Submit that finds the
// waiting slot taken only remembers the report; the copy is made by the next
// Submit that finds the slot free, or by Close.
type Writer struct {
	dest   string
	store  Saver
	logger *slog.Logger

	pending chan *Report
	done    chan struct{}

	mu       sync.Mutex
	deferred *Report
	closed   bool
	err      error
	writes   int
}

// NewWriter starts the writer goroutine. Callers must Close it.
func NewWriter(dest string, store Saver, logger *slog.Logger) *Writer {
	if dest == "" {
		dest = DefaultDest
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		dest:    dest,
		store:   store,
		logger:  logger,
		pending: make(chan *Report, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Dest returns the destination path.
func (w *Writer) Dest() string {
	return w.dest
}

// Submit queues r for writing. r must not be modified concurrently with Submit
// or Close. It returns the error of an earlier failed write, if any.
func (w *Writer) Submit(r *Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return ErrWriterClosed
	}

	// Only Submit and Close send, and only under mu, so the slot cannot fill
	// between this check and the send.
	if len(w.pending) == cap(w.pending) {
		w.deferred = r
		return nil
	}
	w.deferred = nil
	w.pending <- r.Snapshot()
	return nil
}

// Close writes the newest submitted state, waits for the writer goroutine and
// returns the first write error.
func (w *Writer) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		if w.deferred != nil {
			select {
			case <-w.pending:
			default:
			}
			w.pending <- w.deferred.Snapshot()
			w.deferred = nil
		}
		close(w.pending)
	}
	w.mu.Unlock()

	<-w.done
	return w.Err()
}

// Err returns the first write error.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Writes returns how many snapshots reached storage.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

func (w *Writer) loop() {
	defer close(w.done)
	for r := range w.pending {
		if w.Err() != nil {
			continue
		}
		err := w.write(r)

		w.mu.Lock()
		if err != nil {
			w.err = err
		} else {
			w.writes++
		}
		w.mu.Unlock()

		if err != nil {
			w.logger.Error("failed to write report", "dest", w.dest, "error", err)
		}
	}
}

func (w *Writer) write(r *Report) error {
	data, err := Marshal(r, w.dest)
	if err != nil {
		return err
	}
	if err := w.store.SaveFile(w.dest, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	w.logger.Debug("report written", "dest", w.dest, "total_size", r.TotalSizes.TotalSize)
	return nil
}

// Marshal encodes the report for dest: YAML for .yaml/.yml, indented JSON otherwise.
func Marshal(r *Report, dest string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("error marshalling report: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("error marshalling report: %w", err)
		}
		return data, nil
	}
}
