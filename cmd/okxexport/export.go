package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/okx-withdrawals/internal/api"
	"github.com/rickgao/okx-withdrawals/internal/export"
	"github.com/rickgao/okx-withdrawals/internal/writer"
)

type exportOptions struct {
	outputOptions
	start string
	end   string
}

func newExportCmd(g *globalOptions) *cobra.Command {
	o := &exportOptions{}
	cmd := &cobra.Command{
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, g, o)
		},
	}

	o.register(cmd)
	cmd.Flags().StringVar(&o.start, "start", "", "start (UTC), format YYYY-MM-DD[ HH:MM[:SS]]")
	cmd.Flags().StringVar(&o.end, "end", "", "end (UTC), format YYYY-MM-DD[ HH:MM[:SS]]")
	return cmd
}

func runExport(cmd *cobra.Command, g *globalOptions, o *exportOptions) error {
	logger := newLogger(cmd.ErrOrStderr(), g.debug)

	window, err := parseWindow(o.start, o.end)
	if err != nil {
		return err
	}
	cfg, err := g.loadConfig(&o.outputOptions)
	if err != nil {
		return err
	}
	addresses, err := loadAddresses(o.addrFile)
	if err != nil {
		return err
	}

	exp := export.New(
		export.WithBaseURL(cfg.API.BaseURL),
		export.WithInterval(cfg.API.RequestInterval),
		export.WithProgress(cmd.ErrOrStderr()),
		export.WithLogger(logger),
		export.WithClientOptions(
			api.WithTimeout(cfg.API.Timeout),
			api.WithRetryPolicy(retryPolicy(cfg.API)),
			api.WithDemoTrading(cfg.API.Demo),
		),
	)

	res, err := exp.Run(cmd.Context(), export.Request{
		Credentials: cfg.Credentials.AuthCredentials(),
		Ccy:         cfg.Export.Ccy,
		Window:      window,
		Addresses:   addresses,
		Format:      writer.Format(cfg.Export.Format),
		Target:      target(cfg),
	})
	if err != nil {
		return err
	}

	for _, ccy := range res.Totals.Currencies() {
		total := res.Totals[ccy]
		logger.Info("currency total",
			"run_id", res.RunID,
			"ccy", ccy,
			"count", total.Count,
			"amount", total.Amount.String(),
			"fee", total.Fee.String(),
		)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Done. Saved records: %d\n", res.Saved)
	return nil
}
