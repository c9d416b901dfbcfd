package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vehicle-registration-bot/internal/config"
	"vehicle-registration-bot/internal/domain/ports/adapter"
	"vehicle-registration-bot/internal/flow"
	tele "vehicle-registration-bot/internal/infra/adapters/telegram"
	pg "vehicle-registration-bot/internal/infra/db/postgres"
	"vehicle-registration-bot/internal/infra/i18n"
	"vehicle-registration-bot/internal/infra/logging"
	"vehicle-registration-bot/internal/infra/metrics"
	red "vehicle-registration-bot/internal/infra/redis"
	"vehicle-registration-bot/internal/infra/sched"
	"vehicle-registration-bot/internal/infra/storage"
	"vehicle-registration-bot/internal/infra/web"
	"vehicle-registration-bot/internal/infra/worker"
	"vehicle-registration-bot/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (relaxed validation)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logger.Info().Str("version", version).Bool("dev", cfg.Runtime.Dev).Msg("starting")

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	sessionStore := red.NewSessionStore(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- i18n ----
	texts, err := i18n.NewTranslator(i18n.LocalesFS, "ru")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	requestRepo := pg.NewPostgresRequestRepo(pool)
	fileRepo := pg.NewPostgresFileRepo(pool)
	auditRepo := pg.NewPostgresAuditRepo(pool)
	templateRepo := pg.NewTemplateRepoCacheDecorator(pg.NewPostgresTemplateRepo(pool), redisClient)
	tm := pg.NewTxManager(pool)

	// ---- Telegram API client ----
	// Dev mode without a token runs against the noop adapter: outbound
	// messages are logged, nothing is sent.
	noopMode := cfg.Runtime.Dev && cfg.Bot.Token == ""
	var botAPI *tgbotapi.BotAPI
	if noopMode {
		logger.Warn().Msg("no bot token configured; using noop bot adapter")
	} else {
		botAPI, err = tgbotapi.NewBotAPI(cfg.Bot.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram bot init")
		}
	}

	// ---- Photo archival ----
	archivePool := worker.NewPool(cfg.Storage.WorkerCount, logger)
	archivePool.Start(ctx)
	defer archivePool.Stop()
	// Without a bot client there is nothing to download from; force fakes.
	uploader := storage.NewUploader(botAPI, fileRepo, archivePool, cfg.Storage.UploadDir, cfg.Storage.FakeFiles || noopMode, logger)

	// ---- Use cases ----
	requestUC := usecase.NewRequestUseCase(requestRepo, fileRepo, auditRepo, tm, uploader, logger)
	templateUC := usecase.NewTemplateUseCase(templateRepo, logger)
	userUC := usecase.NewUserUseCase(userRepo, tm, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, requestRepo, fileRepo, auditRepo, logger)

	// ---- Conversation engine ----
	engine := flow.NewEngine(sessionStore, requestUC, templateUC, texts, cfg.Web.BaseURL, logger)

	// ---- Telegram adapter ----
	var chatBot adapter.TelegramBotAdapter
	if noopMode {
		noop := tele.NewNoopBot(logger)
		requestUC.SetNotifier(noop)
		chatBot = noop
	} else {
		bot := tele.NewRealTelegramBotAdapter(
			botAPI, &cfg.Bot, engine, sessionStore,
			userUC, requestUC, statsUC,
			rateLimiter, locker, texts, logger,
		)
		requestUC.SetNotifier(bot)
		if strings.ToLower(cfg.Bot.Mode) != "polling" {
			logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
		}
		bot.StartPolling(ctx)
		defer bot.StopPolling()
		chatBot = bot
	}

	// ---- Admin web server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SecureCookie, cfg.Admin.CookieDomain, cfg.Admin.SessionTTL)
	srv := web.NewServer(statsUC, requestUC, templateUC, userUC, cfg.Admin.APIKey, auth, cfg.Storage.UploadDir, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("admin web listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin web server")
		}
	}()

	// ---- Pending-review digest ----
	digest := sched.NewDigestWorker(cfg.Scheduler.DigestInterval, requestUC, chatBot, texts, cfg.Bot.AdminIDs, logger)
	go func() { _ = digest.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin web shutdown")
	}
	cancel()
}
