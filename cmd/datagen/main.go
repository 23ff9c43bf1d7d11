package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sert121/sql-datagen/internal/archive"
	catalogpostgres "github.com/sert121/sql-datagen/internal/catalog/postgres"
	"github.com/sert121/sql-datagen/internal/cli/datagen"
	"github.com/sert121/sql-datagen/internal/completion"
	"github.com/sert121/sql-datagen/internal/config"
	"github.com/sert121/sql-datagen/internal/observability"
	"github.com/sert121/sql-datagen/internal/pipeline"
	"github.com/sert121/sql-datagen/internal/prompt"
	s3store "github.com/sert121/sql-datagen/internal/storage/s3"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load() // a missing .env is fine

	cfg, err := config.LoadFromEnv("datagen")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return 1
	}
	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The catalog connection opens per command, after flags are parsed, and
	// closes as soon as the catalog query finishes.
	introspector := catalogpostgres.NewIntrospector(catalogpostgres.DBConfig{
		Driver:          cfg.Catalog.Driver,
		DSN:             cfg.Catalog.DSN,
		MaxOpenConns:    cfg.Catalog.MaxOpenConns,
		MaxIdleConns:    cfg.Catalog.MaxIdleConns,
		ConnMaxIdleTime: cfg.Catalog.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Catalog.ConnMaxLifetime,
	})

	databaseName := cfg.Catalog.Database
	if databaseName == "" {
		databaseName = catalogpostgres.DatabaseNameFromDSN(cfg.Catalog.DSN)
	}

	composer, err := prompt.NewComposerFromFile(cfg.Pipeline.PromptTemplateFile, cfg.Pipeline.QuestionCount)
	if err != nil {
		logger.Error("failed to load prompt template", slog.Any("error", err))
		return 1
	}

	runner := &pipeline.Runner{
		Catalog:        introspector,
		Composer:       composer,
		Model:          cfg.AI.Model,
		CatalogTimeout: cfg.Catalog.QueryTimeout,
		Logger:         logger,
	}

	// Without a key only dry runs and the catalog commands can work.
	if cfg.AI.APIKey != "" {
		client, err := completion.NewOpenAIClient(completion.OpenAIConfig{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			HTTPClient: &http.Client{
				Timeout:   cfg.AI.Timeout,
				Transport: observability.InstrumentTransport(http.DefaultTransport, logger),
			},
		})
		if err != nil {
			logger.Error("failed to initialize completion client", slog.Any("error", err))
			return 1
		}
		runner.Completer = client
		runner.Model = client.Model()
	} else {
		logger.Warn("DATAGEN_AI_API_KEY is not set; completion is disabled")
	}

	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			return 1
		}
		archiver, err := archive.NewArchiver(objectStore, logger)
		if err != nil {
			logger.Error("failed to initialize archiver", slog.Any("error", err))
			return 1
		}
		runner.Archiver = archiver
	}

	code := datagen.Run(ctx, os.Args[1:], datagen.Options{
		Pipeline:     runner,
		Database:     databaseName,
		Schema:       cfg.Pipeline.Schema,
		Table:        cfg.Pipeline.Table,
		DenyListFile: cfg.Pipeline.DenyListFile,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	})

	if err := observability.WriteTextfile(cfg.Observability.MetricsFile); err != nil {
		logger.Error("failed to write metrics", slog.Any("error", err))
	}
	return code
}
