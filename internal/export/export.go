package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/okx-withdrawals/internal/api"
	"github.com/rickgao/okx-withdrawals/internal/auth"
	"github.com/rickgao/okx-withdrawals/internal/config"
	"github.com/rickgao/okx-withdrawals/internal/filter"
	"github.com/rickgao/okx-withdrawals/internal/model"
	"github.com/rickgao/okx-withdrawals/internal/paginate"
	"github.com/rickgao/okx-withdrawals/internal/writer"
)

// Request describes one export run.
type Request struct {
	Credentials *auth.Credentials
	Ccy         string       // optional currency filter
	Window      model.Window // inclusive time bounds
	Addresses   []string     // optional address needles
	Format      writer.Format
	Target      writer.Target
}

// Result summarizes a run. On error it covers what was written before the
// failure.
type Result struct {
	RunID    string
	Saved    int
	Pages    int
	Requests int
	Totals   Totals
	Duration time.Duration
}

// Exporter runs exports against one API host.
type Exporter struct {
	baseURL    string
	clientOpts []api.ClientOption
	interval   time.Duration
	progress   io.Writer
	logger     *slog.Logger

	open  func(ctx context.Context, format writer.Format, target writer.Target) (writer.Writer, error)
	runID func() string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithBaseURL sets the REST host.
func WithBaseURL(url string) Option {
	return func(e *Exporter) {
		e.baseURL = url
	}
}

// WithClientOptions passes options to the REST client of every run.
func WithClientOptions(opts ...api.ClientOption) Option {
	return func(e *Exporter) {
		e.clientOpts = append(e.clientOpts, opts...)
	}
}

// WithInterval sets the minimum spacing between page requests.
func WithInterval(d time.Duration) Option {
	return func(e *Exporter) {
		e.interval = d
	}
}

// WithProgress sets where per-page progress lines go (default stderr).
func WithProgress(w io.Writer) Option {
	return func(e *Exporter) {
		if w != nil {
			e.progress = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		baseURL:  api.DefaultBaseURL,
		interval: paginate.DefaultInterval,
		progress: os.Stderr,
		logger:   slog.Default(),
		open:     writer.Open,
		runID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates the request, opens the output and exports every matching
// withdrawal. The output is closed on every path.
func (e *Exporter) Run(ctx context.Context, req Request) (res *Result, err error) {
	if req.Credentials == nil {
		return nil, fmt.Errorf("%w: %w: key, secret, passphrase", config.ErrInvalidConfig, auth.ErrMissingCredentials)
	}
	if err := req.Credentials.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	format, err := writer.ParseFormat(string(req.Format))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	started := time.Now()
	res = &Result{RunID: e.runID(), Totals: Totals{}}
	logger := e.logger.With("run_id", res.RunID)

	target := req.Target
	if target.Logger == nil {
		target.Logger = logger
	}
	w, err := e.open(ctx, format, target)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close output: %w", cerr))
		}
		res.Duration = time.Since(started)
	}()

	logger.Info("export started",
		"format", format,
		"ccy", req.Ccy,
		"window", req.Window,
		"addresses", len(req.Addresses),
		"credentials", req.Credentials,
	)

	clientOpts := append([]api.ClientOption{api.WithLogger(logger)}, e.clientOpts...)
	client := api.NewClient(e.baseURL, req.Credentials, clientOpts...)

	pages := paginate.New(client, paginate.Config{
		Ccy:      req.Ccy,
		Window:   req.Window,
		Interval: e.interval,
	}, paginate.WithLogger(logger))
	keep := filter.New(req.Window, req.Addresses)

	for pages.Next(ctx) {
		page := pages.Page()
		kept := keep.Apply(page.Records)

		if err := w.Write(ctx, kept); err != nil {
			res.Requests = pages.Requests()
			return res, fmt.Errorf("write page %d: %w", page.Index, err)
		}

		res.Pages++
		res.Saved += len(kept)
		res.Totals.Add(kept)

		fmt.Fprintf(e.progress, "[page %d] +%d (total %d), next after<%d>\n",
			page.Index, len(kept), res.Saved, page.NextCursor)
		logger.Debug("page exported",
			"page", page.Index,
			"fetched", len(page.Records),
			"kept", len(kept),
			"next_after", page.NextCursor,
			"last", page.Last,
		)
	}
	res.Requests = pages.Requests()

	if err := pages.Err(); err != nil {
		logger.Error("export failed", "error", err, "saved", res.Saved, "pages", res.Pages)
		return res, err
	}

	logger.Info("export finished",
		"saved", res.Saved,
		"pages", res.Pages,
		"requests", res.Requests,
	)
	return res, nil
}
