// Package session runs artifacts through classification, accumulation and
// budget evaluation for a single run. Each Session owns its own Report.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/perf-budget/models"
	"github.com/dtnitsch/perf-budget/pkg/artifact"
	"github.com/dtnitsch/perf-budget/pkg/budget"
	"github.com/dtnitsch/perf-budget/pkg/classifier"
	"github.com/dtnitsch/perf-budget/pkg/report"
)

// ErrStreamingNotSupported is returned for artifacts that are not fully materialized.
var ErrStreamingNotSupported = errors.New("streaming not supported")

// Sink receives report snapshots for persistence.
type Sink interface {
	Submit(r *report.Report) error
	Close() error
}

// Session processes artifacts one at a time, in arrival order.
type Session struct {
	mode   models.WriteMode
	sink   Sink
	logger *slog.Logger

	report    *report.Report
	processed int
	skipped   int
	finished  bool
}

// New resolves the budget and prepares an empty report. A budget configuration
// error is returned before anything is written.
func New(cfg models.Config, sink Sink, logger *slog.Logger) (*Session, error) {
	b, err := budget.Resolve(cfg.Budget)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	mode := cfg.WriteMode
	if mode == "" {
		mode = models.WriteThrough
	}

	r := report.New()
	r.SetBudget(b)

	return &Session{mode: mode, sink: sink, logger: logger, report: r}, nil
}

// Process classifies one artifact, records its size and, in write-through mode,
// hands a snapshot to the sink. Null artifacts are skipped silently.
func (s *Session) Process(a artifact.Artifact) error {
	if s.finished {
		return fmt.Errorf("session already finished")
	}
	if a.IsNull() {
		s.skipped++
		return nil
	}
	if a.IsStream() {
		return fmt.Errorf("%s: %w", a.Path, ErrStreamingNotSupported)
	}

	category := classifier.Classify(a.Path, a.Contents)
	size := a.SizeBytes()
	s.report.Record(category, size, a.Path)
	s.processed++

	s.logger.Debug("artifact recorded", "path", a.Path, "category", category, "size", size)

	if s.mode == models.WriteThrough {
		if err := s.sink.Submit(s.report); err != nil {
			return fmt.Errorf("failed to persist report: %w", err)
		}
	}
	return nil
}

// Finish submits the final report in every write mode, so a run with no
// artifacts still replaces an earlier report, then waits for pending writes.
func (s *Session) Finish() (*report.Report, error) {
	if s.finished {
		return s.report, nil
	}
	s.finished = true

	if err := s.sink.Submit(s.report); err != nil {
		_ = s.sink.Close()
		return s.report, fmt.Errorf("failed to persist report: %w", err)
	}
	if err := s.sink.Close(); err != nil {
		return s.report, fmt.Errorf("failed to persist report: %w", err)
	}
	return s.report, nil
}

// Abort stops the session without a final write, waiting for in-flight writes.
func (s *Session) Abort() {
	if s.finished {
		return
	}
	s.finished = true
	if err := s.sink.Close(); err != nil {
		s.logger.Warn("report writer failed during abort", "error", err)
	}
}

// Report returns the live report. Callers must not modify it.
func (s *Session) Report() *report.Report {
	return s.report
}

// Processed is the number of artifacts recorded.
func (s *Session) Processed() int {
	return s.processed
}

// Skipped is the number of null artifacts ignored.
func (s *Session) Skipped() int {
	return s.skipped
}
