// Package paginate walks the withdrawal history backward in time, one page
// per request.
//
// The first request asks for the most recent page (bounded by before=End when
// an end is set). Every later request asks for records strictly older than
// the previous page's smallest timestamp. The walk ends when the server
// returns an empty page, or as soon as the cursor drops below the window
// start.
package paginate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/rickgao/okx-withdrawals/internal/api"
	"github.com/rickgao/okx-withdrawals/internal/model"
)

// DefaultInterval keeps requests under the endpoint's 6 requests per second.
const DefaultInterval = 200 * time.Millisecond

var (
	// ErrMalformedRecord is returned for a record without an integer ts.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrCursorStalled is returned when a page does not move the cursor back.
	ErrCursorStalled = errors.New("cursor did not advance")
)

// HistorySource fetches one page of history. *api.Client implements it.
type HistorySource interface {
	GetWithdrawalHistory(ctx context.Context, params api.WithdrawalHistoryParams) ([]*model.Record, error)
}

// Config describes one traversal.
type Config struct {
	Ccy      string        // optional currency filter, passed to the server
	Window   model.Window  // Start stops the walk, End bounds the first request
	PageSize int           // defaults to api.MaxWithdrawalPageSize
	Interval time.Duration // minimum spacing between requests, <= 0 disables pacing
}

// Page is one unfiltered server page.
type Page struct {
	Index      int             // 1-based
	Records    []*model.Record // as returned, newest first
	NextCursor int64           // after value for the following request
	Last       bool            // no request follows this page
}

// Paginator is a lazy, single-use sequence of pages. Use it like a
// bufio.Scanner:
//
//	for p.Next(ctx) {
//		page := p.Page()
//	}
//	if err := p.Err(); err != nil { ... }
type Paginator struct {
	src     HistorySource
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger

	cursor   *int64
	page     Page
	index    int
	requests int
	done     bool
	err      error
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Paginator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLimiter replaces the limiter built from Config.Interval.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Paginator) {
		if l != nil {
			p.limiter = l
		}
	}
}

// New creates a paginator. No request is made until Next is called.
func New(src HistorySource, cfg Config, opts ...Option) *Paginator {
	if cfg.PageSize <= 0 || cfg.PageSize > api.MaxWithdrawalPageSize {
		cfg.PageSize = api.MaxWithdrawalPageSize
	}

	p := &Paginator{
		src:     src,
		cfg:     cfg,
		limiter: NewLimiter(cfg.Interval),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewLimiter allows one request per interval with no burst.
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Next fetches the following page. It returns false when the history is
// exhausted, the window start has been passed, or an error occurred.
func (p *Paginator) Next(ctx context.Context) bool {
	if p.done || p.err != nil {
		return false
	}

	params := p.params()

	// The first call passes immediately; later calls wait out the interval.
	if err := p.limiter.Wait(ctx); err != nil {
		p.err = err
		return false
	}

	records, err := p.src.GetWithdrawalHistory(ctx, params)
	p.requests++
	if err != nil {
		p.err = fmt.Errorf("fetch page %d: %w", p.index+1, err)
		return false
	}

	if len(records) == 0 {
		p.logger.Debug("history exhausted", "requests", p.requests)
		p.done = true
		return false
	}

	oldest, err := minTimestamp(records)
	if err != nil {
		p.err = fmt.Errorf("page %d: %w", p.index+1, err)
		return false
	}

	next := oldest - 1
	if p.cursor != nil && next >= *p.cursor {
		p.err = fmt.Errorf("page %d: %w: after=%d, next=%d", p.index+1, ErrCursorStalled, *p.cursor, next)
		return false
	}
	p.cursor = &next
	p.index++

	last := next < 0
	if start := p.cfg.Window.Start; start != nil && next < *start {
		last = true
	}
	p.done = last

	p.page = Page{
		Index:      p.index,
		Records:    records,
		NextCursor: next,
		Last:       last,
	}
	return true
}

// params builds the request for the current cursor.
func (p *Paginator) params() api.WithdrawalHistoryParams {
	params := api.WithdrawalHistoryParams{
		Ccy:   p.cfg.Ccy,
		Limit: p.cfg.PageSize,
	}
	if p.cursor == nil {
		params.Before = p.cfg.Window.End
	} else {
		after := *p.cursor
		params.After = &after
	}
	return params
}

// Page returns the page fetched by the last successful Next.
func (p *Paginator) Page() Page {
	return p.page
}

// Err returns the error that stopped the traversal, if any.
func (p *Paginator) Err() error {
	return p.err
}

// Requests returns how many requests have been made.
func (p *Paginator) Requests() int {
	return p.requests
}

// Cursor returns the after value for the next request, or nil before the
// first page.
func (p *Paginator) Cursor() *int64 {
	if p.cursor == nil {
		return nil
	}
	c := *p.cursor
	return &c
}

func minTimestamp(records []*model.Record) (int64, error) {
	var oldest int64
	for i, r := range records {
		if r == nil {
			return 0, fmt.Errorf("%w: record %d is null", ErrMalformedRecord, i)
		}
		ts, err := r.Timestamp()
		if err != nil {
			return 0, fmt.Errorf("%w: record %d (wdId=%q): %v", ErrMalformedRecord, i, r.Text("wdId"), err)
		}
		if i == 0 || ts < oldest {
			oldest = ts
		}
	}
	return oldest, nil
}
