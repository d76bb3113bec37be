package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/racebot/config"
	"github.com/alejandrodnm/racebot/internal/adapters/gemini"
	"github.com/alejandrodnm/racebot/internal/adapters/notify"
	"github.com/alejandrodnm/racebot/internal/adapters/racecards"
	"github.com/alejandrodnm/racebot/internal/adapters/scrape"
	"github.com/alejandrodnm/racebot/internal/adapters/storage"
	"github.com/alejandrodnm/racebot/internal/analyzer"
	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
	"github.com/alejandrodnm/racebot/internal/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	course := flag.String("course", "", "racecourse name for one-shot analysis")
	raceTime := flag.String("time", "", "race time (HH:MM) for one-shot analysis")
	date := flag.String("date", "", "race date YYYY-MM-DD (default: today)")
	region := flag.String("region", "", "region code (overrides config)")
	serve := flag.Bool("serve", false, "start the HTTP API instead of a one-shot analysis")
	offline := flag.Bool("offline", false, "derive stats locally, never call the inference API")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full ranking table (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *region != "" {
		cfg.Racecards.DefaultRegion = *region
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Adquisición: export diario + providers en vivo si están habilitados
	provider := racecards.NewProvider(cfg.Racecards.Dir, cfg.CacheTTL())

	var live analyzer.LiveFetcher
	if cfg.Scrape.Enabled {
		live = scrape.DefaultChain(scrape.NewClient(cfg.ScrapeTimeout(), cfg.ScrapeMinDelay()))
	}

	// Extracción: inferencia si hay API key, derivación local si no
	var inference ports.Inference
	var stats analyzer.StatsSource = analyzer.NewOfflineExtractor()
	var narrator *analyzer.Narrator
	if !*offline && cfg.Gemini.APIKey != "" {
		quota := gemini.NewQuotaLimiter(cfg.Gemini.RequestsPerMinute, cfg.Gemini.RequestsPerDay)
		client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, quota)
		if err != nil {
			slog.Error("failed to init inference client", "err", err)
			os.Exit(1)
		}
		inference = client
		stats = analyzer.NewExtractor(client)
		narrator = analyzer.NewNarrator(client)
	} else {
		slog.Info("running without inference, deriving stats from form lines")
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	pipeline := analyzer.NewPipeline(provider, live, stats, narrator, store)

	slog.Info("racebot starting",
		"config", *configPath,
		"region", cfg.Racecards.DefaultRegion,
		"scraping", cfg.Scrape.Enabled,
		"inference", inference != nil,
		"serve", *serve,
	)

	if *serve {
		srv := server.New(cfg.Server.Port, provider, pipeline, inference, cfg.Racecards.DefaultRegion)
		if err := srv.Run(ctx); err != nil {
			slog.Error("server exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("racebot stopped cleanly")
		return
	}

	if *course == "" || *raceTime == "" {
		fmt.Fprintln(os.Stderr, "usage: racebot -course <name> -time <HH:MM> [-date YYYY-MM-DD], or racebot -serve")
		os.Exit(2)
	}
	runOnce(ctx, pipeline, cfg, *course, *raceTime, *date, *table)
}

// runOnce analiza una sola carrera y la imprime en consola.
func runOnce(ctx context.Context, pipeline *analyzer.Pipeline, cfg *config.Config, course, raceTime, date string, table bool) {
	req := analyzer.Request{
		Course: course,
		Time:   raceTime,
		Date:   date,
		Region: cfg.Racecards.DefaultRegion,
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	progress := func(ev domain.ProgressEvent) {
		slog.Debug("progress", "stage", ev.Stage, "percent", ev.Percent, "detail", ev.Detail)
	}

	result, err := pipeline.Analyze(ctx, req, progress)
	if err != nil {
		slog.Error("analysis failed", "err", err)
		os.Exit(1)
	}

	notifier := notify.NewConsole(table)
	if err := notifier.Notify(ctx, result); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
