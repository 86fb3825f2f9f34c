package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/eain/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr         string
	Database     string
	NoProvenance bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the decision API over HTTP",
		Long: `Serve the decision API until SIGINT or SIGTERM.

Routes:
  GET  /health
  POST /api/v1/evaluate   {"investor": {...}, "asset": {...}}
  POST /api/v1/batch      {"investor": {...}, "assets": [...]}
  GET  /api/v1/atoms/:id

The listen address defaults to AGENT_HOST:AGENT_PORT.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default AGENT_HOST:AGENT_PORT)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite atom store (default ATOM_DB, else in-memory)")
	cmd.Flags().BoolVar(&opts.NoProvenance, "no-provenance", false, "do not write provenance records")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.AtomDB
	}
	st, err := openStore(dbPath)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "cannot open atom store", err)
	}
	defer st.Close()

	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Addr()
	}

	srv := server.New(newClient(st, provenanceDir(cfg, opts.NoProvenance), logger),
		server.WithLogger(logger),
		server.WithRateLimit(cfg.APIRatePerSec, cfg.APIRateBurst),
		server.WithTrustedProxies(cfg.TrustedProxies...),
		server.WithShutdownTimeout(cfg.ShutdownTimeout))

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "server failed", err)
	}
	return nil
}
