package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/config"
	"github.com/JaimeStill/setu/internal/directory"
	"github.com/JaimeStill/setu/internal/emissions"
	"github.com/JaimeStill/setu/internal/recommendations"
	"github.com/JaimeStill/setu/pkg/backend"
)

type cli struct {
	backendURL string
	timeout    time.Duration
	jsonOut    bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "setu",
		Short:        "Carbon emissions reporting from the terminal",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.backendURL, "backend", "", "emissions backend base URL (default from config)")
	flags.DurationVar(&c.timeout, "timeout", 0, "backend request timeout (default from config)")
	flags.BoolVar(&c.jsonOut, "json", false, "print results as JSON")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log backend requests to stderr")

	root.AddCommand(
		c.orgsCmd(),
		c.branchesCmd(),
		c.departmentsCmd(),
		c.logCmd(),
		c.analyticsCmd(),
		c.exportCmd(),
		c.recommendationsCmd(),
	)

	return root
}

// systems holds the domain systems a command runs against.
type systems struct {
	directory       directory.System
	emissions       emissions.System
	analytics       analytics.System
	recommendations recommendations.System
}

func (c *cli) connect(cmd *cobra.Command) (*systems, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	bc := cfg.Backend
	if c.backendURL != "" {
		bc.BaseURL = c.backendURL
	}
	if c.timeout > 0 {
		bc.Timeout = c.timeout.String()
	}
	if err := bc.Finalize(nil); err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	client, err := backend.New(&bc, logger, nil)
	if err != nil {
		return nil, err
	}

	return &systems{
		directory:       directory.New(client, logger),
		emissions:       emissions.New(client, cfg.API.MaxUploadSizeBytes(), logger),
		analytics:       analytics.New(client, bc.TrendPeriod, logger),
		recommendations: recommendations.New(client, logger),
	}, nil
}

func (c *cli) print(w io.Writer, v any, text func(io.Writer) error) error {
	if c.jsonOut {
		return writeJSON(w, v)
	}
	return text(w)
}
