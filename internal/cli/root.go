// Package cli implements the notedesk CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/notedesk/internal/config"
	"github.com/rcliao/notedesk/internal/logging"
	"github.com/rcliao/notedesk/internal/store"
)

var (
	dbPath      string
	configPath  string
	backendFlag string
	formatFlag  string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "notedesk",
	Short: "Local notes with autosave and a built-in writing helper",
	Long:  "A small note keeper. Notes live in one local snapshot (SQLite, bbolt or a JSON file) and every change is written through immediately.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Storage path (default: $NOTEDESK_DB or ~/.notedesk/notes.<backend>)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $NOTEDESK_CONFIG or ~/.notedesk/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&backendFlag, "backend", "b", "", "Storage backend: sqlite, bolt or file (overrides config)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("NOTEDESK_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".notedesk", "config.yaml")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return os.Getenv("NOTEDESK_DB")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.Storage.Backend = backendFlag
	}
	if p := getDBPath(); p != "" {
		cfg.Storage.Path = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is what every command works with: config, logger and an open store.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	slot   store.Slot
	store  *store.Store
	// openErr is set when the stored snapshot could not be read.
	openErr error
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init logger")
	}

	slot, err := openSlot(cfg, logger)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(ctx, slot, store.WithLogger(logger.Named("store")))
	if err != nil {
		// Reads still work from the seed state; writes are refused.
		logger.Warn("snapshot unavailable, running in memory", zap.Error(err))
	}
	return &app{cfg: cfg, logger: logger, slot: slot, store: s, openErr: err}, nil
}

func openSlot(cfg *config.Config, logger *zap.Logger) (store.Slot, error) {
	path := cfg.StoragePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create storage dir")
	}
	logger.Debug("opening slot",
		zap.String(logging.FieldBackend, cfg.Storage.Backend),
		zap.String(logging.FieldPath, path))

	switch cfg.Storage.Backend {
	case config.BackendBolt:
		return store.NewBoltSlot(path, cfg.Storage.Key)
	case config.BackendFile:
		return store.NewFileSlot(path, logger.Named("file"))
	default:
		return store.NewSQLiteSlot(path, cfg.Storage.Key)
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func mustOpen(cmd *cobra.Command) *app {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	return a
}

// mustOpenWritable is mustOpen for commands that change notes. It refuses
// to run on an unreadable snapshot so the user's data is never replaced.
func mustOpenWritable(cmd *cobra.Command) *app {
	a := mustOpen(cmd)
	if err := a.writable(); err != nil {
		a.Close()
		exitErr("open store", err)
	}
	return a
}

func (a *app) writable() error {
	if a.openErr != nil {
		return errors.Wrap(a.openErr, "snapshot unreadable, refusing to write")
	}
	return nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

// checkPersist fails the command when the last write did not reach storage.
func (a *app) checkPersist() {
	if err := a.store.PersistErr(); err != nil {
		a.Close()
		exitErr("persist", err)
	}
}
