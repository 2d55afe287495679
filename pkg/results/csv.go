// Package results persists one row per completed simulation run.
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Header lists the columns written once at the top of every results file.
var Header = []string{
	"run", "N", "p", "n1", "n2", "angle1_deg", "angle2_deg",
	"dirX", "dirY", "bbox_X", "bbox_Y",
}

// ErrClosed is returned by WriteRow once the writer has been closed.
var ErrClosed = errors.New("results writer is closed")

// Row is the outcome of one run together with the parameters that produced it.
type Row struct {
	Run       int     `json:"run"`
	N         int     `json:"N"`
	P         float64 `json:"p"`
	N1        int     `json:"n1"`
	N2        int     `json:"n2"`
	Angle1Deg float64 `json:"angle1_deg"`
	Angle2Deg float64 `json:"angle2_deg"`
	DirX      float64 `json:"dirX"`
	DirY      float64 `json:"dirY"`
	BoxAlong  float64 `json:"bbox_X"`
	BoxPerp   float64 `json:"bbox_Y"`
}

// Record formats the row in Header order.
func (r Row) Record() []string {
	return []string{
		strconv.Itoa(r.Run),
		strconv.Itoa(r.N),
		formatFloat(r.P),
		strconv.Itoa(r.N1),
		strconv.Itoa(r.N2),
		formatFloat(r.Angle1Deg),
		formatFloat(r.Angle2Deg),
		formatFloat(r.DirX),
		formatFloat(r.DirY),
		formatFloat(r.BoxAlong),
		formatFloat(r.BoxPerp),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Sink receives result rows. Implementations must accept concurrent callers.
type Sink interface {
	WriteRow(Row) error
	Close() error
}

// Writer is an append-only CSV Sink. Every row is flushed to the file before
// WriteRow returns.
type Writer struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	csv    *csv.Writer
	closed bool
}

// Open opens path for appending, creating it and its parent directories when
// needed. The header is written only when the file is new or empty, so
// successive sweeps can accumulate rows in the same file.
func Open(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory %q: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening results file %q: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat results file %q: %w", path, err)
	}

	w := &Writer{path: path, file: file, csv: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := w.write(Header); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return w, nil
}

// Path returns the file the writer appends to.
func (w *Writer) Path() string {
	return w.path
}

// WriteRow appends one row. It is safe for concurrent use.
func (w *Writer) WriteRow(r Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	return w.write(r.Record())
}

func (w *Writer) write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("writing to %q: %w", w.path, err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flushing %q: %w", w.path, err)
	}
	return nil
}

// Close flushes pending data and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.csv.Flush()
	flushErr := w.csv.Error()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", w.path, err)
	}
	if flushErr != nil {
		return fmt.Errorf("flushing %q: %w", w.path, flushErr)
	}
	return nil
}
