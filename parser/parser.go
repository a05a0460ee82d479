// Package parser turns TMDB payloads into flat output rows.
package parser

import (
	"strconv"
	"strings"

	"github.com/aluiziolira/tmdb-crawl/models"
)

// DirectorJob is the crew job that identifies a movie's director.
const DirectorJob = "Director"

const listSeparator = ", "

// SummarizeCredits keeps the first limit billed cast names and the first
// crew member credited as director. A nil payload yields empty strings.
func SummarizeCredits(credits *models.Credits, limit int) models.CreditSummary {
	if credits == nil {
		return models.CreditSummary{}
	}

	cast := credits.Cast
	if limit >= 0 && len(cast) > limit {
		cast = cast[:limit]
	}
	names := make([]string, 0, len(cast))
	for _, member := range cast {
		names = append(names, member.Name)
	}

	director := ""
	for _, member := range credits.Crew {
		if member.Job == DirectorJob {
			director = member.Name
			break
		}
	}

	return models.CreditSummary{
		TopCast:  strings.Join(names, listSeparator),
		Director: director,
	}
}

// JoinGenres resolves genre ids through genres. Ids missing from the map are
// rendered as their decimal value.
func JoinGenres(ids []int, genres models.GenreMap) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := genres[id]; ok {
			names = append(names, name)
			continue
		}
		names = append(names, strconv.Itoa(id))
	}
	return strings.Join(names, listSeparator)
}

// PosterURL prefixes a poster path fragment with the image base.
func PosterURL(imageBase, posterPath string) string {
	if strings.TrimSpace(posterPath) == "" {
		return ""
	}
	return imageBase + posterPath
}

// FormatRating renders a vote average the way spreadsheet tools print
// floats: always with a fractional part.
func FormatRating(rating float64) string {
	text := strconv.FormatFloat(rating, 'f', -1, 64)
	if !strings.ContainsAny(text, ".eEnN") {
		text += ".0"
	}
	return text
}

// FlattenMovie assembles the output row for one movie.
func FlattenMovie(movie models.Movie, genres models.GenreMap, credits models.CreditSummary, imageBase string) *models.MovieRow {
	return &models.MovieRow{
		ID:          movie.ID,
		Title:       movie.Title,
		Overview:    movie.Overview,
		ReleaseDate: movie.ReleaseDate,
		VoteAverage: FormatRating(movie.VoteAverage),
		Genres:      JoinGenres(movie.GenreIDs, genres),
		TopCast:     credits.TopCast,
		Director:    credits.Director,
		PosterURL:   PosterURL(imageBase, movie.PosterPath),
	}
}
