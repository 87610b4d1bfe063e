package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rickgao/okx-withdrawals/internal/database"
	"github.com/rickgao/okx-withdrawals/internal/model"
)

// Writer receives batches of records in order.
type Writer interface {
	Write(ctx context.Context, records []*model.Record) error
	Close() error
}

// Format selects a Writer implementation.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSONL    Format = "jsonl"
	FormatPostgres Format = "postgres"
)

// ErrUnsupportedFormat is returned by ParseFormat for unknown names.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Formats lists the accepted format names.
var Formats = []Format{FormatCSV, FormatJSONL, FormatPostgres}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: csv, jsonl, postgres)", ErrUnsupportedFormat, s)
}

// IsFile reports whether the format writes to a local file.
func (f Format) IsFile() bool {
	return f == FormatCSV || f == FormatJSONL
}

// WriterMetrics counts what a writer has persisted.
type WriterMetrics struct {
	Rows      int64 // rows written
	Conflicts int64 // rows skipped as already present
	Flushes   int64 // batches flushed
}

// Target says where Open writes.
type Target struct {
	Path     string          // output file for csv and jsonl
	Database database.Config // connection for postgres
	Logger   *slog.Logger
}

// Open creates the output for format. File outputs are truncated.
func Open(ctx context.Context, format Format, target Target) (Writer, error) {
	switch format {
	case FormatCSV, FormatJSONL:
		if target.Path == "" {
			return nil, fmt.Errorf("open %s output: path is required", format)
		}
		f, err := os.Create(target.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s output: %w", format, err)
		}
		if format == FormatCSV {
			return NewCSVWriter(f), nil
		}
		return NewJSONLWriter(f), nil

	case FormatPostgres:
		if target.Database.IsZero() {
			return nil, fmt.Errorf("open postgres output: no database configured")
		}
		pool, err := database.Connect(ctx, target.Database)
		if err != nil {
			return nil, fmt.Errorf("open postgres output: %w", err)
		}
		w, err := NewPostgresWriter(ctx, pool, WithLogger(target.Logger), WithCloser(pool.Close))
		if err != nil {
			pool.Close()
			return nil, err
		}
		return w, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}
