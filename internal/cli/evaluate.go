package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/eain/internal/market"
	"github.com/roach88/eain/internal/model"
	"github.com/roach88/eain/internal/profile"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	Profile      string
	Source       string
	AssetsFile   string
	Database     string
	NoProvenance bool
}

// EvaluateResult is the JSON payload of the evaluate command.
type EvaluateResult struct {
	Source    string           `json:"source"`
	Decisions []model.Decision `json:"decisions"`
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate --profile <file> [symbols...]",
		Short: "Evaluate assets for an investor profile",
		Long: `Fetch asset snapshots from a market data source and evaluate each one
against the investor profile.

Without symbols, every symbol of an --assets file is evaluated, or the
default watch list for network sources. Snapshots that cannot be fetched
are skipped.

Examples:
  eain evaluate --profile investor.yaml AAPL MSFT
  eain evaluate --profile investor.cue --source coingecko bitcoin
  eain evaluate --profile investor.yaml --assets assets.yaml --no-provenance
  eain evaluate --profile investor.yaml --db atoms.db --format json TSLA`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "investor profile file (.yaml, .json or .cue)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "market data source: finnhub, coingecko, yahoo or file (default MARKET_SOURCE)")
	cmd.Flags().StringVar(&opts.AssetsFile, "assets", "", "YAML asset snapshot file (implies --source file)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite atom store (default ATOM_DB, else in-memory)")
	cmd.Flags().BoolVar(&opts.NoProvenance, "no-provenance", false, "do not write provenance records")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func runEvaluate(opts *EvaluateOptions, symbols []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	investor, err := profile.LoadFile(opts.Profile)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeProfile, "cannot load profile", err)
	}
	if errs := profile.Validate(investor); len(errs) > 0 {
		return fail(formatter, ExitCommandError, ErrCodeProfile, "invalid profile", joinValidation(errs))
	}

	source := opts.Source
	if source == "" {
		source = cfg.MarketSource
	}
	if opts.AssetsFile != "" {
		source = market.SourceFile
	}

	settings := market.SettingsFromConfig(cfg)
	settings.AssetsFile = opts.AssetsFile
	settings.Logger = logger
	provider, err := market.NewProvider(source, settings)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeSource, "cannot create market data source", err)
	}
	if f, ok := provider.(*market.File); ok && len(symbols) == 0 {
		symbols = f.Symbols()
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.AtomDB
	}
	st, err := openStore(dbPath)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "cannot open atom store", err)
	}
	defer st.Close()

	c := newClient(st, provenanceDir(cfg, opts.NoProvenance), logger)

	ctx := cmd.Context()
	candidates := market.Candidates(ctx, provider, symbols, logger)
	formatter.VerboseLog("Fetched %d snapshot(s) from %s", len(candidates), provider.Name())

	decisions := c.BatchEvaluate(ctx, investor, candidates)

	if formatter.IsJSON() {
		return formatter.Success(EvaluateResult{Source: provider.Name(), Decisions: decisions})
	}
	writeDecisions(formatter, decisions)
	return nil
}

// writeDecisions prints one block per decision with its reason tree.
func writeDecisions(f *OutputFormatter, decisions []model.Decision) {
	w := f.Writer
	if len(decisions) == 0 {
		fmt.Fprintln(w, "No decisions.")
		return
	}
	for _, d := range decisions {
		fmt.Fprintf(w, "%-10s %-13s score=%.2f confidence=%.2f\n", d.Asset, d.Decision, d.Score, d.Confidence)
		for _, node := range d.ReasonTree {
			fmt.Fprintf(w, "  - %s (%s, %.2f): %s\n", node.Rule, node.Outcome, node.Confidence, node.Note)
		}
		if d.Provenance != nil {
			fmt.Fprintf(w, "  provenance %s %s\n", shortHash(d.Provenance.Hash), d.Provenance.Path)
		}
		if f.Verbose && d.DecisionID != "" {
			fmt.Fprintf(w, "  atoms investor=%s asset=%s decision=%s\n", d.InvestorAtom, d.AssetAtom, d.DecisionID)
		}
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func joinValidation(errs []profile.ValidationError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
