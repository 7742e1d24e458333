package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"

	"MarketBrief/internal/config"
	"MarketBrief/internal/digest"
	"MarketBrief/internal/mailer"
	"MarketBrief/internal/news"
	"MarketBrief/internal/provider"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/report"
	"MarketBrief/internal/scheduler"
)

func main() {
	daemon := flag.Bool("daemon", false, "keep running and repeat under schedule.cron")
	workers := flag.Int("workers", 1, "concurrent history fetches")
	flag.Parse()

	logger := log.Logger{
		Level:      log.InfoLevel,
		TimeFormat: "15:04:05",
		Writer:     &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true},
	}

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
		os.Exit(1)
	}
	logger.Level = log.ParseLevel(cfg.Logging.Level)

	companies, err := config.LoadUniverse(cfg.Universe.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("load universe")
		os.Exit(1)
	}
	logger.Info().Int("companies", len(companies)).Msg("universe loaded")

	chain := provider.NewChain(buildSources(cfg, logger), cfg.Providers.MinSamples, logger)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	sender := mailer.New(mailer.Config{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		Sender:     cfg.SMTP.Sender,
		Password:   cfg.SMTP.Password,
		Recipients: cfg.SMTP.Recipients,
		CCSender:   cfg.SMTP.CCSender,
		AdminBCC:   cfg.SMTP.AdminBCC,
		DryRun:     cfg.SMTP.DryRun,
		Debug:      cfg.SMTP.Debug,
	}, logger)

	runner := digest.NewRunner(digest.Deps{
		Universe: companies,
		Fetcher:  chain,
		News:     news.Load(cfg.News.DumpPath, logger),
		Builder:  report.NewBuilder(news.BelongsTo),
		Renderer: report.NewRenderer(news.BelongsTo),
		Sender:   sender,
		Recorder: rec,
		Logger:   logger,
		Workers:  *workers,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *daemon && cfg.Schedule.Cron != "" {
		sched := scheduler.New(ctx, logger)
		if err := sched.Register(cfg.Schedule.Cron, runner.Run); err != nil {
			logger.Fatal().Err(err).Msg("register cron")
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
		logger.Info().Str("cron", cfg.Schedule.Cron).Msg("daemon mode, waiting for schedule")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info().Msg("shutdown signal received, stopping")
		return
	}

	if err := runner.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("digest run failed")
		os.Exit(1)
	}
}

// buildSources instantiates history sources in the configured priority
// order.
func buildSources(cfg *config.Config, logger log.Logger) []provider.Source {
	var sources []provider.Source
	for _, name := range cfg.Providers.Order {
		switch name {
		case "yahoo":
			sources = append(sources, provider.NewYahooSource(cfg.Proxy, logger))
		case "stooq":
			pace := time.Duration(cfg.Providers.StooqPaceSec) * time.Second
			sources = append(sources, provider.NewStooqSource(pace, logger))
		case "alphavantage":
			if cfg.Providers.AlphaVantageKey == "" {
				logger.Warn().Msg("alphavantage listed but no api key, skipping")
				continue
			}
			pace := time.Duration(cfg.Providers.AlphaPaceSec) * time.Second
			sources = append(sources, provider.NewAlphaVantageSource(cfg.Providers.AlphaVantageKey, pace, logger))
		}
	}
	return sources
}
