package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eain/internal/profile"
)

// FileValidation holds the validation result for one profile file.
type FileValidation struct {
	Path   string                    `json:"path"`
	Valid  bool                      `json:"valid"`
	Errors []profile.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile>...",
		Short: "Validate investor profile files",
		Long: `Validate investor profiles against the profile schema.

Each file is decoded and unified with the CUE schema, then checked for
unknown risk tolerances, negative carbon limits and blank or duplicate
excluded industries. Every file is checked; errors do not stop the run.

Exit codes:
  0 - All profiles valid
  1 - One or more profiles invalid`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	errCount := 0
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		fv := validateFile(path)
		if !fv.Valid {
			result.Valid = false
			errCount += len(fv.Errors)
		}
		result.Files = append(result.Files, fv)
	}

	if formatter.IsJSON() {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Failure(ErrCodeProfile, fmt.Sprintf("%d error(s)", errCount), result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", errCount))
	}

	w := formatter.Writer
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s\n", fv.Path)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", fv.Path)
		for _, e := range fv.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", e.Code, e.Field, e.Message)
		}
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", errCount))
	}
	return nil
}

// validateFile loads and validates one profile. Load failures are folded
// into the error list under the "file" field.
func validateFile(path string) FileValidation {
	p, err := profile.LoadFile(path)
	if err != nil {
		code := profile.ErrLoadFailed
		var loadErr *profile.LoadError
		if errors.As(err, &loadErr) {
			code = profile.ErrSchemaMismatch
		}
		return FileValidation{
			Path:   path,
			Errors: []profile.ValidationError{{Field: "file", Message: err.Error(), Code: code}},
		}
	}

	errs := profile.Validate(p)
	return FileValidation{Path: path, Valid: len(errs) == 0, Errors: errs}
}
