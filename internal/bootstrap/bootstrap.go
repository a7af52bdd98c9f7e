package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/upload-probe/internal/config"
	"github.com/kirillkom/upload-probe/internal/core/ports"
	"github.com/kirillkom/upload-probe/internal/core/usecase"
	"github.com/kirillkom/upload-probe/internal/infrastructure/cache/jsonfile"
	openapiloader "github.com/kirillkom/upload-probe/internal/infrastructure/collection/openapi"
	"github.com/kirillkom/upload-probe/internal/infrastructure/collection/postman"
	"github.com/kirillkom/upload-probe/internal/infrastructure/docsource/localfs"
	"github.com/kirillkom/upload-probe/internal/infrastructure/endpoint/httpcaller"
	"github.com/kirillkom/upload-probe/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/upload-probe/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/upload-probe/internal/infrastructure/queue/nats"
	reportexcel "github.com/kirillkom/upload-probe/internal/infrastructure/report/excel"
	reportjson "github.com/kirillkom/upload-probe/internal/infrastructure/report/jsonfile"
	"github.com/kirillkom/upload-probe/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/upload-probe/internal/infrastructure/resilience"
	"github.com/kirillkom/upload-probe/internal/infrastructure/vocab"
	"github.com/kirillkom/upload-probe/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.ProbeMetrics

	Loader ports.CollectionLoader
	Cache  *jsonfile.Cache

	ClassifyUC  ports.DocumentClassificationService
	InterpretUC ports.FailureInterpreter
	ProbeUC     ports.EndpointProber

	ReportJSON *reportjson.Writer
	ReportXLSX *reportexcel.Writer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	probeMetrics := metrics.NewProbeMetrics("upload-probe")
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	oracle, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{
		CallsPerSecond: cfg.OracleQPS,
		Executor:       executor,
		Recorder:       probeMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("init oracle client: %w", err)
	}
	classifier := gemini.NewClassifier(oracle, pdftext.New())
	interpreterOracle := gemini.NewInterpreter(oracle)

	source, err := localfs.New(cfg.DocsDir)
	if err != nil {
		return nil, fmt.Errorf("init document source: %w", err)
	}

	cache, err := jsonfile.Load(cfg.EffectiveCachePath())
	if err != nil {
		return nil, fmt.Errorf("load classification cache: %w", err)
	}

	var loader ports.CollectionLoader
	switch cfg.CollectionFormat {
	case "openapi":
		loader = openapiloader.NewLoader(cfg.CollectionPath, cfg.BaseURLOverride)
	default:
		loader = postman.NewLoader(cfg.CollectionPath, cfg.PostmanEnvPath)
	}

	vocabulary, err := vocab.Load(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	caller := httpcaller.New(httpcaller.Options{
		Timeout: cfg.RequestTimeout(),
		Logger:  logger,
	})

	classifyUC := usecase.NewClassifyDocumentsUseCase(source, cache, classifier, cfg.ConfidenceThreshold)
	interpretUC := usecase.NewInterpretFailureUseCase(interpreterOracle, vocabulary)

	probeOpts := []usecase.ProbeOption{}
	if !cfg.RandomFilePerAPI {
		probeOpts = append(probeOpts, usecase.WithBestGuessSelection())
	}

	closers := make([]func(), 0, 2)

	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewAttemptRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure attempts schema: %w", err)
		}
		probeOpts = append(probeOpts, usecase.WithAttemptStore(repo))
		closers = append(closers, func() { _ = db.Close() })
	}

	if cfg.NATSURL != "" {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init attempt queue: %w", err)
		}
		probeOpts = append(probeOpts, usecase.WithAttemptPublisher(queue))
		closers = append(closers, queue.Close)
	}

	probeUC := usecase.NewProbeEndpointsUseCase(caller, source, interpretUC, probeOpts...)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Metrics:     probeMetrics,
		Loader:      loader,
		Cache:       cache,
		ClassifyUC:  classifyUC,
		InterpretUC: interpretUC,
		ProbeUC:     probeUC,
		ReportJSON:  reportjson.NewWriter(cfg.ReportPath()),
		ReportXLSX:  reportexcel.NewWriter(cfg.WorkbookPath()),
		closeFn: func() {
			for _, closeResource := range closers {
				closeResource()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
