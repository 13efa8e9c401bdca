package main

import (
	"charapng/config"
	"charapng/storage"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	cfg      *config.Config
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
	store    storage.FullRepo
	logClose io.Closer
)

// initApp loads the config, opens the log and, when DBPATH is set, the store.
func initApp(configPath string) error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %q: %w", configPath, err)
	}
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		logfile, err := os.OpenFile(cfg.LogFile,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.LogFile, err)
		}
		out = logfile
		logClose = logfile
	}
	logLevel.Set(parseLevel(cfg.LogLevel))
	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel}))
	if cfg.DBPATH == "" {
		logger.Debug("no DBPATH configured; personas are not persisted")
		return nil
	}
	store, err = storage.NewProviderSQL(cfg.DBPATH, logger)
	if err != nil {
		return fmt.Errorf("failed to open db %q: %w", cfg.DBPATH, err)
	}
	return nil
}

func closeApp() {
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}
	if logClose != nil {
		logClose.Close()
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
