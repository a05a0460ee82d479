package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/tmdb-crawl/config"
	"github.com/aluiziolira/tmdb-crawl/models"
	"github.com/aluiziolira/tmdb-crawl/pipeline"
	"github.com/aluiziolira/tmdb-crawl/scraper"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// A missing .env is fine; the key may come from the real environment.
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("TMDB_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid TMDB_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("TMDB_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("TMDB_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	maxPages := flag.Int("pages", pagesDefault, "Maximum pages to fetch per listing endpoint")
	delayMs := flag.Int("delay", int(defaultCfg.Delay/time.Millisecond), "Pause after each page and each credits lookup (milliseconds)")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	language := flag.String("language", defaultCfg.Language, "Language parameter sent with every request")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "TMDB API base URL")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.APIKey = config.APIKeyFromEnv()
	cfg.BaseURL = *baseURL
	cfg.Language = *language
	cfg.MaxPages = *maxPages
	cfg.Delay = time.Duration(*delayMs) * time.Millisecond
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	result, metrics, err := run(ctx, cfg, nil)
	if err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			fmt.Fprintln(os.Stderr, "Please set API_KEY in the environment or a .env file.")
			os.Exit(1)
		}
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}

	printSummary(result, metrics, time.Since(startTime), pipeline.OutputPaths(cfg.OutputFormat, cfg.OutputFile))
}

// run performs one full crawl. transport replaces the HTTP transport when
// non-nil. Nothing touches the network or the output path until the
// configuration and credential have been checked.
func run(ctx context.Context, cfg *config.Config, transport http.RoundTripper) (*models.RunResult, map[string]interface{}, error) {
	if err := cfg.CheckCredential(); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := scraper.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialising client: %w", err)
	}
	if transport != nil {
		client.WithTransport(transport)
	}

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(client.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("endpoints", len(cfg.Endpoints)),
		slog.Int("pages", cfg.MaxPages),
	)

	agg, err := pipeline.NewAggregator(cfg, client, client.Metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("initialising aggregator: %w", err)
	}
	result, err := agg.Run(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("crawl interrupted: %w", err)
	}
	client.Stats(result)

	writer, err := pipeline.NewWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating writer: %w", err)
	}
	if err := pipeline.WriteRows(writer, result.Rows); err != nil {
		return nil, nil, err
	}
	return result, agg.GetMetrics(), nil
}

func printSummary(result *models.RunResult, metrics map[string]interface{}, duration time.Duration, outputFiles []string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")
	fmt.Printf("  Genres:        %d\n", result.GenreCount)
	fmt.Printf("  Movies:        %d\n", result.MovieCount)
	fmt.Printf("  Rows written:  %d\n", len(result.Rows))
	if processed, ok := metrics["processed_movies"].(int); ok {
		fmt.Printf("  Enriched:      %d\n", processed)
	}
	if events, ok := metrics["events"].(map[string]int); ok {
		fmt.Printf("  Duplicates:    %d\n", events["duplicate_id"])
		fmt.Printf("  No credits:    %d\n", events["missing_credits"])
	}
	fmt.Printf("  Pages:         %d\n", result.PageCount)
	fmt.Printf("  Requests:      %d\n", result.RequestCount)
	fmt.Printf("  Retries:       %d\n", result.RetryCount)
	fmt.Printf("  No data:       %d\n", result.FailedCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output:        %s\n", strings.Join(outputFiles, ", "))
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
