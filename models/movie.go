// Package models defines data structures for the crawler.
package models

import (
	"strconv"
	"time"
)

// Movie is one entry of a listing endpoint's results array.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int   `json:"genre_ids"`
	PosterPath  string  `json:"poster_path"`
}

// MoviePage is a single page of a listing endpoint. Results stays nil when
// the field is absent from the payload; an empty array decodes to a non-nil
// empty slice.
type MoviePage struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

// Genre is a category entry from the genre list endpoint.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the payload of /genre/movie/list.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// GenreMap resolves category ids to display names for the whole run.
type GenreMap map[int]string

// CastMember is a billed cast entry; the API returns them in billing order.
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is a crew entry.
type CrewMember struct {
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the payload of /movie/{id}/credits.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CreditSummary holds the derived cast and director strings for one movie.
type CreditSummary struct {
	TopCast  string
	Director string
}

// MovieRow is the flattened record written per movie.
type MovieRow struct {
	ID          int    `csv:"id" json:"id"`
	Title       string `csv:"title" json:"title"`
	Overview    string `csv:"overview" json:"overview"`
	ReleaseDate string `csv:"release_date" json:"release_date"`
	VoteAverage string `csv:"vote_average" json:"vote_average"`
	Genres      string `csv:"genres" json:"genres"`
	TopCast     string `csv:"top_cast" json:"top_cast"`
	Director    string `csv:"director" json:"director"`
	PosterURL   string `csv:"poster_url" json:"poster_url"`
}

var rowHeader = []string{"id", "title", "overview", "release_date", "vote_average", "genres", "top_cast", "director", "poster_url"}

// RowHeader returns the CSV column names in output order.
func RowHeader() []string {
	out := make([]string, len(rowHeader))
	copy(out, rowHeader)
	return out
}

// Record returns the row's fields in RowHeader order.
func (r *MovieRow) Record() []string {
	return []string{
		strconv.Itoa(r.ID),
		r.Title,
		r.Overview,
		r.ReleaseDate,
		r.VoteAverage,
		r.Genres,
		r.TopCast,
		r.Director,
		r.PosterURL,
	}
}

// RunResult holds the overall result of a crawl.
type RunResult struct {
	Rows         []*MovieRow
	StartTime    time.Time
	EndTime      time.Time
	GenreCount   int
	MovieCount   int
	PageCount    int
	RequestCount int
	RetryCount   int
	FailedCount  int
	ErrorsByType map[string]int
}
