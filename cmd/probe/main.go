package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/upload-probe/internal/bootstrap"
	"github.com/kirillkom/upload-probe/internal/config"
	"github.com/kirillkom/upload-probe/internal/core/domain"
	"github.com/kirillkom/upload-probe/internal/core/usecase"
	"github.com/kirillkom/upload-probe/internal/observability/logging"
	"github.com/kirillkom/upload-probe/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("upload-probe", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	var metricsServer *http.Server
	if cfg.MetricsPort != "" {
		metricsServer = metrics.Serve(":"+cfg.MetricsPort, app.Metrics)
		logger.Info("metrics listening", "port", cfg.MetricsPort)
		defer shutdownMetrics(metricsServer)
	}

	if err := run(ctx, app, logger); err != nil {
		if metricsServer != nil {
			shutdownMetrics(metricsServer)
		}
		log.Fatalf("run error: %v", err)
	}
}

func run(ctx context.Context, app *bootstrap.App, logger *slog.Logger) error {
	started := time.Now()

	cachedBefore := app.Cache.Len()
	usable, unusable, err := app.ClassifyUC.ClassifyAll(ctx)
	if err != nil {
		return err
	}
	recordCacheTraffic(app, cachedBefore, len(usable)+len(unusable))
	logger.Info("documents classified",
		"usable", len(usable),
		"unusable", len(unusable))
	for _, doc := range unusable {
		logger.Warn("document unusable", "file", doc.Filename)
	}

	endpoints, err := app.Loader.Load(ctx)
	if err != nil {
		return err
	}
	uploads := 0
	for _, endpoint := range endpoints {
		if endpoint.IsUpload {
			uploads++
		}
	}
	logger.Info("collection loaded",
		"endpoints", len(endpoints),
		"upload_endpoints", uploads)

	attempts, err := app.ProbeUC.Probe(ctx, endpoints, usable)
	if err != nil {
		return err
	}
	recordAttemptMetrics(app, attempts)

	entries := usecase.BuildReport(endpoints, attempts)
	if err := app.ReportJSON.Write(ctx, entries); err != nil {
		return err
	}
	if err := app.ReportXLSX.Write(ctx, entries); err != nil {
		logger.Warn("workbook report failed", "error", err)
	}
	if err := app.Cache.Flush(ctx); err != nil {
		logger.Warn("cache flush failed", "error", err)
	}

	runID := ""
	if len(attempts) > 0 {
		runID = attempts[0].RunID
	}
	summary := usecase.Summarize(runID, entries, len(usable), len(unusable), app.ReportJSON.Path())
	printSummary(summary)

	logger.Info("run complete",
		"run_id", summary.RunID,
		"duration", time.Since(started).String(),
		"accepted", summary.Accepted,
		"rejected", summary.Rejected,
		"skipped", summary.Skipped)
	return nil
}

func recordCacheTraffic(app *bootstrap.App, cachedBefore, totalDocs int) {
	misses := app.Cache.Len() - cachedBefore
	if misses < 0 {
		misses = 0
	}
	for i := 0; i < misses; i++ {
		app.Metrics.RecordCacheMiss()
	}
	for i := 0; i < totalDocs-misses; i++ {
		app.Metrics.RecordCacheHit()
	}
}

func recordAttemptMetrics(app *bootstrap.App, attempts []domain.Attempt) {
	for _, attempt := range attempts {
		app.Metrics.RecordAttempt(attempt.Outcome)
		switch {
		case attempt.Interpretation != nil:
			app.Metrics.RecordInterpretation(attempt.Interpretation.Tier)
		case attempt.SkipReason == "could not determine requirement":
			app.Metrics.RecordInterpretation(0)
		}
	}
}

func printSummary(summary domain.RunSummary) {
	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Printf("summary: %+v", summary)
		return
	}
	os.Stdout.Write(append(raw, '\n'))
}

func shutdownMetrics(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
