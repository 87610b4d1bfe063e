package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rickgao/okx-withdrawals/internal/model"
)

// ErrMissingID is returned for a record without a wdId.
var ErrMissingID = errors.New("record has no wdId")

// createTableSQL creates the withdrawals table if it does not exist.
const createTableSQL = `
	CREATE TABLE IF NOT EXISTS okx_withdrawals (
		wd_id       TEXT PRIMARY KEY,
		ts          BIGINT NOT NULL,
		ccy         TEXT,
		chain       TEXT,
		amt         NUMERIC,
		fee         NUMERIC,
		state       TEXT,
		tx_id       TEXT,
		to_addr     TEXT,
		raw         JSONB NOT NULL,
		exported_at TIMESTAMPTZ NOT NULL
	)
`

const insertSQL = `
	INSERT INTO okx_withdrawals (wd_id, ts, ccy, chain, amt, fee, state, tx_id, to_addr, raw, exported_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (wd_id) DO NOTHING
`

// batchSender is the subset of *pgxpool.Pool the writer needs.
type batchSender interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresWriter inserts each batch into okx_withdrawals in one round trip.
// Rows already present are counted as conflicts and left untouched.
type PostgresWriter struct {
	db     batchSender
	logger *slog.Logger
	now    func() time.Time

	closeFn func()
	closed  bool

	metrics WriterMetrics
}

// PostgresOption configures a PostgresWriter.
type PostgresOption func(*PostgresWriter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PostgresOption {
	return func(w *PostgresWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithCloser registers a function run once by Close, typically pool.Close.
func WithCloser(fn func()) PostgresOption {
	return func(w *PostgresWriter) {
		w.closeFn = fn
	}
}

// NewPostgresWriter creates the table if needed and returns a writer.
func NewPostgresWriter(ctx context.Context, db batchSender, opts ...PostgresOption) (*PostgresWriter, error) {
	w := &PostgresWriter{
		db:     db,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create okx_withdrawals table: %w", err)
	}
	return w, nil
}

// withdrawalRow is one row of okx_withdrawals.
type withdrawalRow struct {
	WdID   string
	Ts     int64
	Ccy    string
	Chain  string
	Amt    pgtype.Numeric
	Fee    pgtype.Numeric
	State  string
	TxID   string
	ToAddr string
	Raw    json.RawMessage
}

// transform converts a record to a row.
func transform(r *model.Record) (withdrawalRow, error) {
	if r == nil {
		return withdrawalRow{}, fmt.Errorf("%w: null record", ErrMissingID)
	}
	id := r.Text("wdId")
	if id == "" {
		return withdrawalRow{}, ErrMissingID
	}

	ts, err := r.Timestamp()
	if err != nil {
		return withdrawalRow{}, fmt.Errorf("withdrawal %s: %w", id, err)
	}

	raw, err := r.MarshalJSON()
	if err != nil {
		return withdrawalRow{}, fmt.Errorf("withdrawal %s: encode raw: %w", id, err)
	}

	amt, err := numeric(r.Text("amt"))
	if err != nil {
		return withdrawalRow{}, fmt.Errorf("withdrawal %s: amt: %w", id, err)
	}
	fee, err := numeric(r.Text("fee"))
	if err != nil {
		return withdrawalRow{}, fmt.Errorf("withdrawal %s: fee: %w", id, err)
	}

	return withdrawalRow{
		WdID:   id,
		Ts:     ts,
		Ccy:    r.Text("ccy"),
		Chain:  r.Text("chain"),
		Amt:    amt,
		Fee:    fee,
		State:  r.Text("state"),
		TxID:   r.Text("txId"),
		ToAddr: r.Text("to"),
		Raw:    raw,
	}, nil
}

// numeric parses a decimal string; empty means NULL.
func numeric(s string) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if s == "" {
		return n, nil
	}
	if err := n.Scan(s); err != nil {
		return n, err
	}
	return n, nil
}

// Write inserts records using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *PostgresWriter) Write(ctx context.Context, records []*model.Record) error {
	if w.closed {
		return errClosed
	}
	if len(records) == 0 {
		return nil
	}

	rows := make([]withdrawalRow, 0, len(records))
	for _, r := range records {
		row, err := transform(r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	start := time.Now()
	conflicts, err := w.batchInsert(ctx, rows)
	if err != nil {
		return fmt.Errorf("insert withdrawals: %w", err)
	}

	w.metrics.Rows += int64(len(rows) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++

	w.logger.Debug("flushed withdrawals",
		"count", len(rows),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

func (w *PostgresWriter) batchInsert(ctx context.Context, rows []withdrawalRow) (conflicts int, err error) {
	exportedAt := w.now().UTC()

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertSQL,
			r.WdID, r.Ts, r.Ccy, r.Chain, r.Amt, r.Fee, r.State, r.TxID, r.ToAddr, r.Raw, exportedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}

// Close releases the connection pool.
func (w *PostgresWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.closeFn != nil {
		w.closeFn()
	}
	return nil
}

// Stats returns current metrics.
func (w *PostgresWriter) Stats() WriterMetrics {
	return w.metrics
}
