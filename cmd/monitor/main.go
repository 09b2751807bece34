package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/matiks/matiks-monitor/internal/config"
	"github.com/matiks/matiks-monitor/internal/lexicon"
	"github.com/matiks/matiks-monitor/internal/monitoring"
	"github.com/matiks/matiks-monitor/internal/notifications"
	"github.com/matiks/matiks-monitor/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	cfg     *config.Config
	logFile io.Closer

	queryFlag     string
	outputDirFlag string
	limitFlag     int
	logLevelFlag  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "monitor",
	Short:        "Matiks social and app store mention monitor",
	Long:         "monitor collects brand mentions from social platforms and app stores, scores their sentiment, and keeps a deduplicated history with a filterable dashboard.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		if err := godotenv.Load(); err != nil {
			logrus.Debug("No .env file found, using environment variables")
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded

		flags := cmd.Flags()
		if flags.Changed("query") {
			cfg.Query = queryFlag
		}
		if flags.Changed("output-dir") {
			cfg.OutputDir = outputDirFlag
		}
		if flags.Changed("limit") {
			cfg.FetchLimit = limitFlag
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevelFlag
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		closer, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		logFile = closer
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&queryFlag, "query", "", "search query (MONITOR_QUERY)")
	flags.StringVar(&outputDirFlag, "output-dir", "", "directory for data, dashboard and logs (OUTPUT_DIR)")
	flags.IntVar(&limitFlag, "limit", 0, "maximum items fetched per source (FETCH_LIMIT)")
	flags.StringVar(&logLevelFlag, "log-level", "", "log level (LOG_LEVEL)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("monitor", version)
	},
}

// setupLogging configures logrus once for the whole process; cycles never touch it
func setupLogging(cfg *config.Config) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.OutputDir, "monitor.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, f))

	return f, nil
}

// newStorage returns the backend selected by STORAGE_BACKEND
func newStorage(ctx context.Context, cfg *config.Config) (storage.StorageInterface, error) {
	switch cfg.StorageBackend {
	case config.StorageAzure:
		azure, err := storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, err
		}
		return azure, nil
	default:
		local, err := storage.NewLocalStorage(cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
}

func newLexicon(cfg *config.Config) (*lexicon.Lexicon, error) {
	if cfg.LexiconFile != "" {
		return lexicon.Load(cfg.LexiconFile)
	}
	return lexicon.Default()
}

// newMonitoringService wires storage, lexicon and notifications into a monitoring service
func newMonitoringService(ctx context.Context, cfg *config.Config) (*monitoring.Service, error) {
	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	lex, err := newLexicon(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}
	logrus.WithField("version", lex.Version).Debug("Lexicon loaded")

	if cfg.NotificationsEnabled() {
		return monitoring.NewService(cfg, lex, store, notifications.NewService(cfg)), nil
	}
	return monitoring.NewService(cfg, lex, store, nil), nil
}
