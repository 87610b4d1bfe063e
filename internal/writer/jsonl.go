package writer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rickgao/okx-withdrawals/internal/model"
)

var errClosed = errors.New("writer is closed")

// JSONLWriter writes one compact JSON object per line, keys in server order.
type JSONLWriter struct {
	out    io.Writer
	buf    *bufio.Writer
	enc    *json.Encoder
	closed bool

	metrics WriterMetrics
}

// NewJSONLWriter creates a JSON lines writer. If out is an io.Closer, Close
// closes it.
func NewJSONLWriter(out io.Writer) *JSONLWriter {
	buf := bufio.NewWriter(out)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{
		out: out,
		buf: buf,
		enc: enc,
	}
}

// Write appends one line per record and flushes.
func (w *JSONLWriter) Write(_ context.Context, records []*model.Record) error {
	if w.closed {
		return errClosed
	}
	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		if err := w.enc.Encode(r); err != nil {
			return fmt.Errorf("encode record %q: %w", r.Text("wdId"), err)
		}
	}

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush jsonl: %w", err)
	}
	w.metrics.Rows += int64(len(records))
	w.metrics.Flushes++
	return nil
}

// Close flushes and closes the underlying writer.
func (w *JSONLWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.buf.Flush()
	if err != nil {
		err = fmt.Errorf("flush jsonl: %w", err)
	}
	if c, ok := w.out.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close jsonl output: %w", cerr)
		}
	}
	return err
}

// Stats returns current metrics.
func (w *JSONLWriter) Stats() WriterMetrics {
	return w.metrics
}
