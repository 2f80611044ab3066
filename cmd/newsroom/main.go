package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"masbate_today/internal/cache"
	"masbate_today/internal/config"
	"masbate_today/internal/feed"
	"masbate_today/internal/highlights"
	"masbate_today/internal/media"
	"masbate_today/internal/publisher"
	"masbate_today/internal/scheduler"
	"masbate_today/internal/service"
	"masbate_today/internal/source/static"
	"masbate_today/internal/storage/postgres"
)

// newsroom is everything a front end calls into.
type newsroom struct {
	Articles   *service.ArticleRepository
	Polls      *service.PollService
	Newsletter *service.NewsletterService
	Media      *media.Uploader
	Highlights *highlights.Service
}

// stores holds the database-backed collaborators. All fields stay nil when
// the database is not configured or unreachable.
type stores struct {
	db         *sqlx.DB
	articles   service.ArticleStore
	polls      service.PollStore
	newsletter service.NewsletterStore
	live       feed.Subscriber
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	dataset, err := static.Load()
	if err != nil {
		logger.Error("failed to load bundled articles", "error", err)
		os.Exit(1)
	}

	st := openStores(cfg.Database, logger)
	if st.db != nil {
		defer st.db.Close()
	}

	var events service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	highlightCache, closeCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		logger.Error("failed to open cache", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	defer closeCache()

	uploader, err := openMedia(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to configure object storage", "error", err)
		os.Exit(1)
	}

	articles := service.NewArticleRepository(st.articles, dataset, events, logger, cfg.Feed).WithMedia(uploader)

	app := &newsroom{
		Articles:   articles,
		Polls:      service.NewPollService(st.polls, logger),
		Newsletter: service.NewNewsletterService(st.newsletter, logger),
		Media:      uploader,
		Highlights: highlights.NewService(articles, highlightCache, cfg.Feed, cfg.Cache.TTL, logger),
	}

	metricsServer := serveMetrics(cfg.Metrics.Addr, logger)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	breaking := feed.Watch(ctx, st.live, feed.LiveOptions{Limit: cfg.Feed.BreakingLimit}, logger)
	defer breaking.Close()
	go logBreakingNews(ctx, breaking, logger)

	sched := scheduler.NewScheduler("highlights", app.Highlights, cfg.Feed.RefreshInterval, logger)

	logger.Info("starting newsroom",
		"backend_configured", app.Articles.Configured(),
		"events", events != nil,
		"cache", cfg.Cache.Backend,
		"refresh_interval", cfg.Feed.RefreshInterval,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func openStores(cfg config.DatabaseConfig, logger *slog.Logger) stores {
	if !cfg.Configured() {
		logger.Warn("database not configured, serving bundled articles only")
		return stores{}
	}

	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		logger.Warn("failed to connect to database, serving bundled articles only", "error", err)
		return stores{}
	}
	logger.Info("connected to database")

	articleStore := postgres.NewArticleStore(db)
	return stores{
		db:         db,
		articles:   articleStore,
		polls:      postgres.NewPollStore(db, postgres.NewTransactionManager(db)),
		newsletter: postgres.NewNewsletterStore(db),
		live:       postgres.NewArticleFeed(articleStore, cfg.DSN(), logger),
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, func(), error) {
	if cfg.Backend == "redis" {
		rc, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		}, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	}

	mc := cache.NewMemory(cfg.TTL)
	return mc, mc.Stop, nil
}

func openMedia(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*media.Uploader, error) {
	mediaCfg := media.Config{
		Bucket:        cfg.Bucket,
		Region:        cfg.Region,
		Endpoint:      cfg.Endpoint,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	if !cfg.Configured() {
		return media.NewUploader(nil, mediaCfg, logger), nil
	}

	client, err := media.NewS3Client(ctx, mediaCfg)
	if err != nil {
		return nil, err
	}
	return media.NewUploader(client, mediaCfg, logger), nil
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return srv
}

func logBreakingNews(ctx context.Context, live *feed.LiveFeed, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-live.Changes():
			articles := live.Articles()
			if len(articles) == 0 {
				continue
			}
			logger.Info("breaking news updated",
				"count", len(articles),
				"latest_id", articles[0].ID,
				"latest_title", articles[0].Title,
			)
		}
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
