package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rickgao/okx-withdrawals/internal/filter"
	"github.com/rickgao/okx-withdrawals/internal/model"
	"github.com/rickgao/okx-withdrawals/internal/stream"
	"github.com/rickgao/okx-withdrawals/internal/writer"
)

func newWatchCmd(g *globalOptions) *cobra.Command {
	o := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow new withdrawals over the websocket",
		Long: `Subscribe to the private withdrawal-info channel and write every pushed
withdrawal update to the output until interrupted. A withdrawal that changes
state is pushed, and written, once per state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, g, o)
		},
	}
	o.register(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, g *globalOptions, o *outputOptions) (err error) {
	logger := newLogger(cmd.ErrOrStderr(), g.debug)
	ctx := cmd.Context()

	cfg, err := g.loadConfig(o)
	if err != nil {
		return err
	}
	addresses, err := loadAddresses(o.addrFile)
	if err != nil {
		return err
	}

	t := target(cfg)
	t.Logger = logger
	w, err := writer.Open(ctx, writer.Format(cfg.Export.Format), t)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close output: %w", cerr))
		}
	}()

	client := stream.NewClient(stream.Config{
		URL: cfg.API.WSURL,
		Ccy: cfg.Export.Ccy,
	}, cfg.Credentials.AuthCredentials(), logger)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	saved, err := follow(ctx, client, w, filter.New(model.Window{}, addresses), logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Done. Saved records: %d\n", saved)
	return nil
}

// feed is the part of stream.Client that follow needs.
type feed interface {
	Run(ctx context.Context, handle stream.Handler) error
}

// follow writes every pushed batch that passes keep until the feed stops.
func follow(ctx context.Context, src feed, w writer.Writer, keep *filter.Filter, logger *slog.Logger) (int, error) {
	saved := 0
	err := src.Run(ctx, func(ctx context.Context, records []*model.Record) error {
		kept := keep.Apply(records)
		if len(kept) == 0 {
			return nil
		}
		if err := w.Write(ctx, kept); err != nil {
			return fmt.Errorf("write update: %w", err)
		}
		saved += len(kept)

		for _, r := range kept {
			logger.Info("withdrawal update",
				"wd_id", r.Text("wdId"),
				"ccy", r.Text("ccy"),
				"amt", r.Text("amt"),
				"state", r.Text("state"),
			)
		}
		return nil
	})
	return saved, err
}
