package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eain/internal/model"
	"github.com/roach88/eain/internal/store"
)

// AtomOptions holds flags for the atom commands.
type AtomOptions struct {
	*RootOptions
	Database string
}

// NewAtomCommand creates the atom command group.
func NewAtomCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AtomOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "atom",
		Short: "Inspect the atom store",
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite atom store (default ATOM_DB)")

	cmd.AddCommand(newAtomGetCommand(opts))
	return cmd
}

func newAtomGetCommand(opts *AtomOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one atom",
		Long: `Print the investor, asset or decision atom stored under id.

Example:
  eain atom get --db atoms.db decision_3f2a9c0d1e`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAtomGet(opts, args[0], cmd)
		},
	}
}

func runAtomGet(opts *AtomOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dbPath := opts.Database
	if dbPath == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeConfig, "invalid configuration", err)
		}
		dbPath = cfg.AtomDB
	}
	if dbPath == "" {
		return fail(formatter, ExitCommandError, ErrCodeStore, "no atom store: pass --db or set ATOM_DB", nil)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "cannot open atom store", err)
	}
	defer st.Close()

	atom, err := st.Get(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(formatter, ExitFailure, ErrCodeNotFound, fmt.Sprintf("atom %s not found", id), nil)
	}
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "atom lookup failed", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(atom)
	}
	data, err := model.MarshalPretty(atom)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "cannot render atom", err)
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}
