package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/aluiziolira/tmdb-crawl/models"
)

// Genres loads the genre map once. A failed or malformed response yields an
// empty map and callers fall back to raw ids.
func (c *Client) Genres(ctx context.Context) models.GenreMap {
	genres := make(models.GenreMap)

	var payload models.GenreList
	if !c.Fetch(ctx, c.Endpoint("/genre/movie/list"), nil, &payload) {
		return genres
	}
	for _, g := range payload.Genres {
		genres[g.ID] = g.Name
	}
	return genres
}

// ListEndpoint walks pages 1..MaxPages of a listing endpoint and returns the
// accumulated results. It stops at the first page that has no payload or no
// results field; later pages are not requested.
func (c *Client) ListEndpoint(ctx context.Context, endpoint string) []models.Movie {
	var movies []models.Movie
	target := c.Endpoint(endpoint)

	for page := 1; page <= c.cfg.MaxPages; page++ {
		var payload models.MoviePage
		params := url.Values{"page": []string{strconv.Itoa(page)}}
		if !c.Fetch(ctx, target, params, &payload) || payload.Results == nil {
			slog.Debug("listing stopped",
				slog.String("endpoint", endpoint),
				slog.Int("page", page),
			)
			break
		}

		movies = append(movies, payload.Results...)
		atomic.AddInt64(&c.pageCount, 1)
		c.Metrics.IncPage(endpoint)
		slog.Info("page fetched",
			slog.String("endpoint", endpoint),
			slog.Int("page", page),
			slog.Int("movies", len(payload.Results)),
		)

		if c.Throttle(ctx) != nil {
			break
		}
	}

	return movies
}

// Credits fetches the cast and crew of one movie. It returns nil when the
// request produced no data. Results are never cached.
func (c *Client) Credits(ctx context.Context, movieID int) *models.Credits {
	var payload models.Credits
	if !c.Fetch(ctx, c.Endpoint(fmt.Sprintf("/movie/%d/credits", movieID)), nil, &payload) {
		return nil
	}
	return &payload
}
