package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/eain/internal/provenance"
)

// RecordCheck is the verification result for one provenance file.
type RecordCheck struct {
	Path   string `json:"path"`
	Symbol string `json:"symbol,omitempty"`
	Hash   string `json:"hash,omitempty"`
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
}

// VerifyResult holds the verification results.
type VerifyResult struct {
	Valid   bool          `json:"valid"`
	Records []RecordCheck `json:"records"`
}

// NewProvenanceCommand creates the provenance command group.
func NewProvenanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provenance",
		Short: "Work with provenance records",
	}
	cmd.AddCommand(newProvenanceVerifyCommand(rootOpts))
	return cmd
}

func newProvenanceVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file|dir>...",
		Short: "Recompute provenance hashes",
		Long: `Recompute the content hash of each provenance record's raw snapshot
and compare it with the stored hash. Directories are expanded to their
*.json records.

Exit codes:
  0 - All records verified
  1 - A record is unreadable or its hash does not match
  2 - A path does not exist`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvenanceVerify(opts, args, cmd)
		},
	}
}

func runProvenanceVerify(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, err := expandRecordPaths(paths)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeNotFound, "cannot read records", err)
	}

	result := VerifyResult{Valid: true, Records: make([]RecordCheck, 0, len(files))}
	failed := 0
	for _, path := range files {
		check := verifyRecord(path)
		if !check.Valid {
			result.Valid = false
			failed++
		}
		result.Records = append(result.Records, check)
	}

	if formatter.IsJSON() {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Failure(ErrCodeHash, fmt.Sprintf("%d record(s) failed verification", failed), result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) failed verification", failed))
	}

	w := formatter.Writer
	for _, check := range result.Records {
		if check.Valid {
			fmt.Fprintf(w, "✓ %s %s %s\n", check.Path, check.Symbol, shortHash(check.Hash))
			continue
		}
		fmt.Fprintf(w, "✗ %s\n  %s\n", check.Path, check.Error)
	}
	fmt.Fprintf(w, "\n%d verified, %d failed\n", len(files)-failed, failed)

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) failed verification", failed))
	}
	return nil
}

func verifyRecord(path string) RecordCheck {
	rec, err := provenance.VerifyFile(path)
	check := RecordCheck{Path: path, Hash: rec.Hash, Valid: err == nil}
	if rec.Symbol != nil {
		check.Symbol = *rec.Symbol
	}
	if err != nil {
		check.Error = err.Error()
	}
	return check
}

// expandRecordPaths keeps files as given and expands directories.
func expandRecordPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		listed, err := provenance.List(p)
		if err != nil {
			return nil, err
		}
		files = append(files, listed...)
	}
	return files, nil
}
