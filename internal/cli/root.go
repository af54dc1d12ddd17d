package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rippledata/importer/internal/core/config"
	redisclient "github.com/rippledata/importer/internal/infra/redis"
	"github.com/rippledata/importer/internal/infra/rpc"
	"github.com/rippledata/importer/internal/infra/storage/postgres"
	"github.com/rippledata/importer/internal/ingest"
)

var (
	cfgPath     string
	nodeURL     string
	dbURL       string
	activityLog string
	startIndex  uint64
	endIndex    uint64
	inputPath   string
	timeoutSecs int
	isDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "XRP Ledger importer",
	Long: `Importer fetches closed ledgers from a rippled node over JSON-RPC or
WebSocket and stores them, with their transactions, in PostgreSQL.`,
	RunE: runImport,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "connection", "c", "", "rippled URL (http(s):// or ws(s)://)")
	rootCmd.PersistentFlags().StringVarP(&dbURL, "pgconnection", "p", "", "PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVarP(&activityLog, "log", "l", "", "activity log path")
	rootCmd.PersistentFlags().IntVarP(&timeoutSecs, "timeout", "t", 0, "request timeout in seconds (default 60)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().Uint64VarP(&startIndex, "start", "s", 0, "first ledger index")
	rootCmd.Flags().Uint64VarP(&endIndex, "end", "e", 0, "last ledger index (default: start)")
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "file of newline-separated ledger indexes")

	rootCmd.AddCommand(failedCmd)
}

// loadConfig merges the optional config file with flag overrides.
func loadConfig() (*config.AppConfig, error) {
	var cfg *config.AppConfig
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = &config.AppConfig{}
		cfg.ApplyDefaults()
	}

	if nodeURL != "" {
		cfg.Node.URL = nodeURL
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if activityLog != "" {
		cfg.Import.ActivityLog = activityLog
	}
	if timeoutSecs > 0 {
		cfg.Node.Timeout = config.Duration(time.Duration(timeoutSecs) * time.Second)
	}

	if cfg.Node.URL == "" {
		return nil, fmt.Errorf("node connection is required (--connection or config)")
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database connection is required (--pgconnection or config)")
	}
	return cfg, nil
}

func setupLogging(cfg *config.AppConfig) {
	level := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})))
}

func runImport(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	cur, err := buildCursor(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db.DB.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	db.StartMetricsCollector(ctx)

	src, err := rpc.New(cfg.Node.URL, cfg.Node.Timeout.Std())
	if err != nil {
		return err
	}
	defer src.Close()

	// Connectivity probe before committing to the run.
	if _, err := src.ServerInfo(ctx); err != nil {
		return fmt.Errorf("node unreachable: %w", err)
	}
	slog.Info("connected", "node", cfg.Node.URL)

	activity, err := ingest.OpenActivityLog(cfg.Import.ActivityLog)
	if err != nil {
		return err
	}
	defer activity.Close()

	if cfg.Metrics.Port > 0 {
		go serveMetrics(cfg.Metrics.Port)
	}

	driver := ingest.NewDriver(src, postgres.NewStore(db), activity, slog.Default(), ingest.Policy{
		MaxAttempts: cfg.Import.MaxAttempts,
		RetryDelay:  cfg.Import.RetryDelay.Std(),
		SocketDelay: cfg.Import.SocketDelay.Std(),
	})

	if cfg.Redis.Addr != "" {
		rc, err := redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, failed-ledger queue disabled", "error", err)
		} else {
			defer rc.Close()
			driver.SetFailedSink(redisclient.NewFailedLedgerQueue(rc))
		}
	}

	sum, err := driver.Run(ctx, cur)
	slog.Info("run finished",
		"stored", sum.Stored,
		"duplicates", sum.Duplicates,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d ledgers failed; see activity log", sum.Failed)
	}
	return nil
}

func buildCursor(cmd *cobra.Command) (ingest.Cursor, error) {
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		ids, err := ingest.ReadLedgerList(f)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("input file %s contains no ledger indexes", inputPath)
		}
		return ingest.NewListCursor(ids), nil
	}

	if !cmd.Flags().Changed("start") {
		return nil, fmt.Errorf("either --start or --input is required")
	}
	end := endIndex
	if !cmd.Flags().Changed("end") {
		end = startIndex
	}
	return ingest.NewRangeCursor(startIndex, end)
}

func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	slog.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}
