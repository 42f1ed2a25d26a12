package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"github.com/tuneid/TuneID-Go/bot/config"
	"github.com/tuneid/TuneID-Go/bot/download"
	"github.com/tuneid/TuneID-Go/bot/id3"
	"github.com/tuneid/TuneID-Go/bot/locale"
	logpkg "github.com/tuneid/TuneID-Go/bot/logger"
	"github.com/tuneid/TuneID-Go/bot/platform"
	"github.com/tuneid/TuneID-Go/bot/recognize"
	"github.com/tuneid/TuneID-Go/bot/telegram"
	"github.com/tuneid/TuneID-Go/bot/telegram/handler"
	"github.com/tuneid/TuneID-Go/bot/worker"
)

// App wires all application dependencies.
type App struct {
	Config    *config.Config
	Logger    *logpkg.Logger
	Pool      *worker.Pool
	Telegram  *telegram.Bot
	Downloads *download.Service
	Handlers  *handler.Handlers
	Router    *handler.Router
	Build     BuildInfo
}

// BuildInfo provides build-time metadata.
type BuildInfo struct {
	RuntimeVer string
	BinVersion string
	CommitSHA  string
	BuildTime  string
	BuildArch  string
}

// New builds the application container.
func New(ctx context.Context, configPath string, build BuildInfo) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logpkg.New(conf.GetString("LogLevel"), conf.GetString("LogFormat"), conf.GetBool("LogSource"))
	if err != nil {
		return nil, err
	}

	locales := locale.NewStore(locale.Parse(conf.GetString("DefaultLanguage")))

	entries := platform.DefaultEntries()
	for i, e := range entries {
		if domains := conf.PlatformDomains(string(e.Tag)); len(domains) > 0 {
			entries[i].Domains = domains
		}
	}
	detector := platform.NewDetector(entries)

	downloadDir := strings.TrimSpace(conf.GetString("DownloadDir"))
	if downloadDir == "" {
		downloadDir = "./downloads"
	}
	downloads := download.New(download.Options{
		Dir:             downloadDir,
		Timeout:         time.Duration(conf.GetInt("DownloadTimeout")) * time.Second,
		MaxRetries:      conf.GetInt("DownloadMaxRetries"),
		Concurrency:     int64(conf.GetInt("DownloadConcurrency")),
		MemoryGuardPct:  conf.GetFloat64("MemoryGuardPercent"),
		MaxSendFileSize: int64(conf.GetInt("MaxSendFileSizeMB")) * 1024 * 1024,
	}, log)

	recognizer := recognize.New(recognize.Options{
		BaseURL:     conf.GetString("RecognizeAPI"),
		Timeout:     time.Duration(conf.GetInt("RecognizeTimeout")) * time.Second,
		MaxFileSize: int64(conf.GetInt("RecognizeMaxFileSizeMB")) * 1024 * 1024,
	}, log)

	pool := worker.New(conf.GetInt("WorkerPoolSize"))

	tele, err := telegram.New(conf, log)
	if err != nil {
		return nil, fmt.Errorf("init telegram: %w", err)
	}

	rateLimitPerSecond := conf.GetFloat64("RateLimitPerSecond")
	if rateLimitPerSecond <= 0 {
		rateLimitPerSecond = 1.0
	}
	rateLimitBurst := conf.GetInt("RateLimitBurst")
	if rateLimitBurst <= 0 {
		rateLimitBurst = 3
	}
	rateLimiter := telegram.NewRateLimiter(rateLimitPerSecond, rateLimitBurst)
	rateLimiter.SetLogger(log)

	handlers := &handler.Handlers{
		Sender:            &handler.BotSender{Bot: tele, Limiter: rateLimiter},
		Detector:          detector,
		Downloader:        downloads,
		Recognizer:        recognizer,
		Tagger:            id3.New(log),
		Locales:           locales,
		Logger:            log,
		DownloadDir:       downloadDir,
		InlineSearchLimit: conf.GetInt("InlineSearchLimit"),
	}

	return &App{
		Config:    conf,
		Logger:    log,
		Pool:      pool,
		Telegram:  tele,
		Downloads: downloads,
		Handlers:  handlers,
		Router:    handler.NewRouter(handlers, pool, log),
		Build:     build,
	}, nil
}

// Start connects to Telegram and begins consuming updates.
func (a *App) Start(ctx context.Context) error {
	meCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	me, err := a.Telegram.GetMe(meCtx)
	if err != nil {
		return fmt.Errorf("getMe: %w", err)
	}
	a.Handlers.BotName = me.Username

	a.Logger.Info("bot online",
		"username", me.Username,
		"version", a.Build.BinVersion,
		"commit", a.Build.CommitSHA,
		"runtime", a.Build.RuntimeVer,
		"arch", a.Build.BuildArch,
	)

	_ = a.Telegram.Client().SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{
			{Command: "start", Description: "Start the bot"},
			{Command: "help", Description: "How to use the bot"},
			{Command: "language", Description: "Choose language"},
		},
	})

	updates, err := a.Telegram.Updates(ctx)
	if err != nil {
		return fmt.Errorf("long polling: %w", err)
	}
	go a.Router.Run(ctx, updates)
	go a.sweepLoop(ctx)

	return nil
}

// sweepLoop removes stale files from the download directory every hour.
func (a *App) sweepLoop(ctx context.Context) {
	maxAge := time.Duration(a.Config.GetInt("TempFileMaxAgeHours")) * time.Hour
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Downloads.SweepStale(maxAge)
		}
	}
}

// Shutdown releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.Pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := a.Pool.Shutdown(shutdownCtx); err != nil {
			a.Pool.StopNow()
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown worker pool: %w", err)
			}
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("close logger: %w", err)
			}
		}
	}

	return firstErr
}
