package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"feedpress/internal/config"
	"feedpress/internal/db"
	"feedpress/internal/feedsync"
	"feedpress/internal/logger"
	"feedpress/internal/network"
	"feedpress/internal/repository"
	"feedpress/internal/scheduler"
	"feedpress/internal/service"
	"feedpress/internal/snowflake"
	"feedpress/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logger.Error("ingest failed", "module", "main", "action", "run", "resource", "process", "result", "failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return nil
		}
		return err
	}

	logger.Init(logger.ParseLevel(cfg.LogLevel))
	if err := snowflake.Init(cfg.NodeID); err != nil {
		return fmt.Errorf("init snowflake: %w", err)
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dbConn.Close()

	feedRepo := repository.NewFeedSourceRepository(dbConn)
	itemRepo := repository.NewFeedItemRepository(dbConn)
	contentRepo := repository.NewContentRepository(dbConn)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.FeedsFile != "" {
		file, err := feedsync.Load(cfg.FeedsFile)
		if err != nil {
			return err
		}
		result, err := feedsync.Sync(ctx, feedRepo, file)
		if err != nil {
			return fmt.Errorf("sync feeds: %w", err)
		}
		logger.Info("feeds synced", "module", "main", "action", "sync", "resource", "feed", "result", "ok",
			"created", result.Created, "updated", result.Updated, "unchanged", result.Unchanged)
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	clientFactory := network.NewClientFactory(cfg.ProxyURL)
	limiter := network.NewHostLimiter(cfg.HostQPS)
	feedFetcher := network.NewHTTPFetcher(clientFactory, limiter, cfg.UserAgent)
	pageFetcher := feedFetcher
	if cfg.BrowserFetch {
		pageFetcher = network.NewBrowserFetcher(clientFactory, limiter)
	}

	uploader := service.NewMediaUploader(pageFetcher, store, service.UploaderOptions{
		DownloadTimeout: cfg.ImageTimeout,
		UploadTimeout:   cfg.UploadTimeout,
		CacheControl:    cfg.CacheControl,
		Concurrency:     cfg.UploadConcurrency,
	})
	assembler := service.NewPostAssembler(
		contentRepo,
		service.NewImageValidator(cfg.ImageMinBytes, cfg.ImageMinWidth, cfg.ImageMinHeight),
		service.AssemblerOptions{
			FeaturedPriority:    cfg.FeaturedPriority,
			PlaceholderPrefixes: cfg.PlaceholderPrefixes,
		},
	)
	runner := service.NewFeedRunner(service.RunnerDeps{
		Feeds:     feedRepo,
		Items:     itemRepo,
		Parser:    service.NewFeedParser(feedFetcher, cfg.FeedTimeout),
		Extractor: service.NewContentExtractor(pageFetcher, cfg.ArticleTimeout, !cfg.NoReadability),
		Uploader:  uploader,
		Assembler: assembler,
	}, cfg.DefaultMaxItems)

	if cfg.Mode == config.ModeLoop {
		sched := scheduler.New(runner, cfg.RunInterval, cfg.RunTimeout, func(report *service.RunReport) {
			_ = report.WriteSummary(os.Stdout)
		})
		sched.Start()
		<-ctx.Done()
		logger.Info("shutting down", "module", "main", "action", "stop", "resource", "process", "result", "ok")
		sched.Stop()
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	var report *service.RunReport
	if cfg.FeedID != 0 {
		report, err = runner.RunFeed(runCtx, cfg.FeedID)
	} else {
		report, err = runner.RunAll(runCtx)
	}
	if err != nil {
		return err
	}
	return report.WriteSummary(os.Stdout)
}

func newStore(cfg config.Config) (storage.ObjectStore, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.StorageEndpoint,
			Bucket:    cfg.StorageBucket,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Region:    cfg.StorageRegion,
			UseSSL:    cfg.StorageUseSSL,
			PublicURL: cfg.StoragePublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return store, nil
	case config.StorageMemory:
		return storage.NewMemoryStore(cfg.StoragePublicURL), nil
	default:
		return storage.NewLocalStore(cfg.StorageDir, cfg.StoragePublicURL), nil
	}
}
