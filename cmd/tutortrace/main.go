package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/tutortrace/internal/config"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "tutortrace",
		Short:         "Tutoring session traces - ingest chat logs, draw trace diagrams, tally message types",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug/info/warn/error)")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(traceCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and sets up logging. The --config flag
// takes the place of TUTORTRACE_CONFIG and the default location.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return nil, herr
		}
		cfg, err = config.LoadFrom(configPath, home)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	setupLogging(cfg.LogLevel)
	if cfg.Source != "" {
		slog.Debug("config loaded", "path", cfg.Source)
	}
	return cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
