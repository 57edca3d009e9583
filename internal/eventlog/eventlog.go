// Package eventlog appends accepted analyser results to a CSV file for
// offline review, one row per accepted estimate. It never logs
// NoEstimate batches, preserving the invariant that the log only ever
// reflects moments the analyser actually produced a result.
package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/doismellburning/bpmsyncd/internal/bpm"
)

var header = []string{"timestamp", "bpm", "confidence", "coarse_confidence", "is_drop", "energy", "average_energy"}

// Logger appends rows to an open CSV file.
type Logger struct {
	file   io.Closer
	writer *csv.Writer
}

// Open creates or appends to path, writing a header row only if the file
// is new/empty.
func Open(path string) (*Logger, error) {
	needsHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		needsHeader = false
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("eventlog: write header: %w", err)
		}
		w.Flush()
	}

	return &Logger{file: f, writer: w}, nil
}

// OpenDaily builds a path from pattern (an strftime layout, e.g.
// "bpmsyncd-%Y-%m-%d.csv") evaluated against now, then opens it.
func OpenDaily(pattern string, now time.Time) (*Logger, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("eventlog: bad log name pattern %q: %w", pattern, err)
	}
	return Open(f.FormatString(now))
}

// Write appends one row for an accepted result and flushes immediately, so
// a crash loses at most the in-flight write.
func (l *Logger) Write(ts time.Time, res bpm.AnalysisResult) error {
	row := []string{
		ts.UTC().Format(time.RFC3339Nano),
		strconv.FormatFloat(res.BPM, 'f', 2, 64),
		strconv.FormatFloat(res.Confidence, 'f', 4, 64),
		strconv.FormatFloat(res.CoarseConfidence, 'f', 4, 64),
		strconv.FormatBool(res.IsDrop),
		strconv.FormatFloat(res.Energy, 'f', 6, 64),
		strconv.FormatFloat(res.AverageEnergy, 'f', 6, 64),
	}
	if err := l.writer.Write(row); err != nil {
		return fmt.Errorf("eventlog: write row: %w", err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.writer.Flush()
	return l.file.Close()
}
