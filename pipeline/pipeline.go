package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/tmdb-crawl/config"
	"github.com/aluiziolira/tmdb-crawl/models"
	"github.com/aluiziolira/tmdb-crawl/parser"
)

// Catalog is the subset of the TMDB client the aggregator drives.
type Catalog interface {
	Genres(ctx context.Context) models.GenreMap
	ListEndpoint(ctx context.Context, endpoint string) []models.Movie
	Credits(ctx context.Context, movieID int) *models.Credits
	Throttle(ctx context.Context) error
}

// MovieCounter receives one increment per unique movie kept.
type MovieCounter interface {
	IncMovies()
}

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(rows []*models.MovieRow) error
	Close() error
	Validate() error
}

// Aggregator merges the listing endpoints, de-duplicates by movie id and
// enriches every surviving movie with credits. Everything runs sequentially
// in endpoint order, then page order, then result order.
type Aggregator struct {
	cfg     *config.Config
	catalog Catalog
	counter MovieCounter
	dedupe  *Deduplicator

	metrics metrics
}

// NewAggregator builds an aggregator for a single run. counter may be nil.
func NewAggregator(cfg *config.Config, catalog Catalog, counter MovieCounter) (*Aggregator, error) {
	dedupe, err := NewDeduplicator(cfg.DedupeInitialSize)
	if err != nil {
		return nil, err
	}
	return &Aggregator{
		cfg:     cfg,
		catalog: catalog,
		counter: counter,
		dedupe:  dedupe,
		metrics: newMetrics(),
	}, nil
}

// Run fetches the genre map, collects all listing endpoints and builds one
// row per unique movie. It only fails when ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) (*models.RunResult, error) {
	result := &models.RunResult{StartTime: time.Now()}

	slog.Info("fetching genre list")
	genres := a.catalog.Genres(ctx)
	result.GenreCount = len(genres)
	slog.Info("genres fetched", slog.Int("genres", len(genres)))

	movies, err := a.Collect(ctx)
	if err != nil {
		return nil, err
	}
	result.MovieCount = len(movies)
	slog.Info("listing complete", slog.Int("movies", len(movies)))

	rows, err := a.Enrich(ctx, movies, genres)
	if err != nil {
		return nil, err
	}
	result.Rows = rows
	result.EndTime = time.Now()
	return result, nil
}

// Collect runs the paginator for every configured endpoint and keeps the
// first occurrence of each movie id.
func (a *Aggregator) Collect(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	for _, endpoint := range a.cfg.Endpoints {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("collect %s: %w", endpoint, err)
		}

		slog.Info("fetching endpoint", slog.String("endpoint", endpoint))
		for _, movie := range a.catalog.ListEndpoint(ctx, endpoint) {
			if !a.dedupe.Add(movie.ID) {
				a.metrics.addEvent("duplicate_id")
				continue
			}
			movies = append(movies, movie)
			if a.counter != nil {
				a.counter.IncMovies()
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	return movies, nil
}

// Enrich looks up credits for each movie in order and flattens it into an
// output row, pausing for the configured delay after every lookup.
func (a *Aggregator) Enrich(ctx context.Context, movies []models.Movie, genres models.GenreMap) ([]*models.MovieRow, error) {
	rows := make([]*models.MovieRow, 0, len(movies))
	for i, movie := range movies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("enrich: %w", err)
		}

		summary := parser.SummarizeCredits(a.catalog.Credits(ctx, movie.ID), a.cfg.CastLimit)
		if summary.TopCast == "" && summary.Director == "" {
			a.metrics.addEvent("missing_credits")
		}
		rows = append(rows, parser.FlattenMovie(movie, genres, summary, a.cfg.ImageBaseURL))
		a.metrics.incrementProcessed()

		slog.Info("movie enriched",
			slog.Int("index", i+1),
			slog.Int("total", len(movies)),
			slog.String("title", movie.Title),
		)

		if err := a.catalog.Throttle(ctx); err != nil {
			return nil, fmt.Errorf("enrich: %w", err)
		}
	}
	return rows, nil
}

// GetMetrics returns a snapshot of the internal counters.
func (a *Aggregator) GetMetrics() map[string]interface{} {
	return a.metrics.snapshot()
}

// WriteRows serialises rows through writer, validates the output and closes
// it. A failure partway leaves whatever was already flushed on disk.
func WriteRows(writer OutputWriter, rows []*models.MovieRow) error {
	if err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := writer.Validate(); err != nil {
		writer.Close()
		return fmt.Errorf("validate output: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

type metrics struct {
	mu        sync.Mutex
	processed int64
	events    map[string]int
}

func newMetrics() metrics {
	return metrics{
		events: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addEvent(kind string) {
	m.mu.Lock()
	m.events[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyEvents := make(map[string]int, len(m.events))
	for k, v := range m.events {
		copyEvents[k] = v
	}

	return map[string]interface{}{
		"processed_movies": m.processed,
		"events":           copyEvents,
	}
}
