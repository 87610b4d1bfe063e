package writer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rickgao/okx-withdrawals/internal/model"
)

// CanonicalColumns are the withdrawal fields that always lead the CSV header.
var CanonicalColumns = []string{
	"wdId", "ts", "ccy", "amt", "state", "fee", "feeCcy",
	"chain", "txId", "to", "toAddrType", "from", "areaCodeFrom",
	"areaCodeTo", "nonTradableAsset", "clientId", "note", "tag",
	"pmtId", "memo", "addrEx",
}

// CSVWriter writes records as CSV rows. The header is the canonical columns
// followed by any new keys of the first non-empty batch; later keys outside
// the header are dropped.
type CSVWriter struct {
	out    io.Writer
	csv    *csv.Writer
	closed bool

	columns []string

	metrics WriterMetrics
}

// NewCSVWriter creates a CSV writer. If out is an io.Closer, Close closes it.
func NewCSVWriter(out io.Writer) *CSVWriter {
	cw := csv.NewWriter(out)
	cw.UseCRLF = true
	return &CSVWriter{
		out: out,
		csv: cw,
	}
}

// Columns returns the header, or nil before the first non-empty batch.
func (w *CSVWriter) Columns() []string {
	return append([]string(nil), w.columns...)
}

// Write appends one row per record and flushes.
func (w *CSVWriter) Write(_ context.Context, records []*model.Record) error {
	if w.closed {
		return errClosed
	}
	if len(records) == 0 {
		return nil
	}

	if w.columns == nil {
		w.columns = headerFor(records)
		if err := w.csv.Write(w.columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	row := make([]string, len(w.columns))
	for _, r := range records {
		for i, col := range w.columns {
			row[i] = r.Text(col)
		}
		if err := w.csv.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	if err := w.flush(); err != nil {
		return err
	}
	w.metrics.Rows += int64(len(records))
	return nil
}

// Close writes the canonical header if nothing was written, flushes and
// closes the underlying writer.
func (w *CSVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	if w.columns == nil {
		w.columns = append([]string(nil), CanonicalColumns...)
		if werr := w.csv.Write(w.columns); werr != nil {
			err = fmt.Errorf("write csv header: %w", werr)
		}
	}
	if ferr := w.flush(); ferr != nil && err == nil {
		err = ferr
	}
	if c, ok := w.out.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv output: %w", cerr)
		}
	}
	return err
}

// Stats returns current metrics.
func (w *CSVWriter) Stats() WriterMetrics {
	return w.metrics
}

func (w *CSVWriter) flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	w.metrics.Flushes++
	return nil
}

// headerFor returns the canonical columns plus unseen keys of records in
// first-seen order.
func headerFor(records []*model.Record) []string {
	columns := append([]string(nil), CanonicalColumns...)
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}
