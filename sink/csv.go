package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fieldCleaner strips record terminators and the field separator from
// values before quoting. Stripping (not escaping) guarantees one physical
// line per row regardless of input, matching the capture format consumed
// downstream.
var fieldCleaner = strings.NewReplacer(",", "", "\r", "", "\n", "")

// CSV is an append-only CSV file sink.
//
// The file is bootstrapped exactly once with a UTF-8 BOM and a header row;
// existing files are never truncated, so multiple process invocations can
// write into the same daily file. Every field is quoted and cleaned of
// embedded separators; empty values are rendered as [Sentinel].
type CSV struct {
	path string
}

// DefaultPath returns the run-scoped result file path:
// <dir>/showwatch.<date>.<stopSeconds>.csv.
func DefaultPath(dir, date string, stopSeconds int) string {
	return filepath.Join(dir, fmt.Sprintf("showwatch.%s.%d.csv", date, stopSeconds))
}

// NewCSV creates a CSV sink, creating parent directories and bootstrapping
// the header if the file does not yet exist.
func NewCSV(path string) (*CSV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create result dir: %w", err)
	}
	if err := ensureHeader(path); err != nil {
		return nil, err
	}
	return &CSV{path: path}, nil
}

// ensureHeader writes the BOM and header row if, and only if, the file does
// not already exist.
func ensureHeader(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat result file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			// another invocation bootstrapped it first
			return nil
		}
		return fmt.Errorf("create result file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// UTF-8 BOM for spreadsheet friendliness
	if _, err := f.WriteString("\uFEFF" + formatRow(columns) + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Append appends one row per record. Appending zero records is a no-op.
func (c *CSV) Append(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open result file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, rec := range recs {
		if _, err := w.WriteString(formatRow(rec.fields()) + "\n"); err != nil {
			_ = f.Close()
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush rows: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close result file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is opened and closed per append.
func (c *CSV) Close() error { return nil }

// Path returns the sink's file path.
func (c *CSV) Path() string { return c.path }

// formatRow quotes every field, cleaning separators and substituting the
// sentinel for empty values.
func formatRow(fields []string) string {
	var b strings.Builder
	for i, v := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		v = fieldCleaner.Replace(v)
		if v == "" {
			v = Sentinel
		}
		b.WriteByte('"')
		b.WriteString(v)
		b.WriteByte('"')
	}
	return b.String()
}
