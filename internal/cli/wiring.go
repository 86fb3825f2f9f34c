package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/eain/internal/client"
	"github.com/roach88/eain/internal/config"
	"github.com/roach88/eain/internal/engine"
	"github.com/roach88/eain/internal/provenance"
	"github.com/roach88/eain/internal/store"
)

// loadConfig reads the environment, honoring --env-file.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.EnvFile != "" {
		return config.Load(opts.EnvFile)
	}
	return config.Load()
}

// newLogger builds the process logger from cfg; --verbose forces debug.
func newLogger(opts *RootOptions, cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return config.NewLogger(level, cfg.LogFormat, w)
}

// openStore opens the SQLite atom store at path, or an in-memory store
// when path is empty.
func openStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemoryStore(), nil
	}
	return store.Open(path)
}

// newClient wires engine, optional provenance recorder and store into a
// decision client.
func newClient(st store.Store, recordDir string, logger *slog.Logger) *client.Client {
	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if recordDir != "" {
		engineOpts = append(engineOpts,
			engine.WithRecorder(provenance.NewRecorder(recordDir, provenance.WithLogger(logger))))
	}
	return client.New(st, engine.New(engineOpts...), client.WithLogger(logger))
}

// provenanceDir returns where provenance should be recorded, or "" when
// recording is off.
func provenanceDir(cfg *config.Config, disabled bool) string {
	if disabled || !cfg.RecordProvenance {
		return ""
	}
	return cfg.ProvenanceDir
}
