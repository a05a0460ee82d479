package parser

import (
	"strings"
	"testing"

	"github.com/aluiziolira/tmdb-crawl/models"
)

func TestSummarizeCredits(t *testing.T) {
	seven := make([]models.CastMember, 0, 7)
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		seven = append(seven, models.CastMember{Name: name})
	}

	tests := []struct {
		name         string
		credits      *models.Credits
		wantCast     string
		wantDirector string
	}{
		{
			name:         "no payload",
			credits:      nil,
			wantCast:     "",
			wantDirector: "",
		},
		{
			name:         "seven cast trimmed to five",
			credits:      &models.Credits{Cast: seven},
			wantCast:     "A, B, C, D, E",
			wantDirector: "",
		},
		{
			name: "first director wins",
			credits: &models.Credits{
				Cast: []models.CastMember{{Name: "Lead"}, {Name: "Support"}},
				Crew: []models.CrewMember{
					{Name: "Writer", Job: "Screenplay"},
					{Name: "First", Job: "Director"},
					{Name: "Second", Job: "Director"},
				},
			},
			wantCast:     "Lead, Support",
			wantDirector: "First",
		},
		{
			name: "job match is exact",
			credits: &models.Credits{
				Crew: []models.CrewMember{
					{Name: "Assistant", Job: "Assistant Director"},
					{Name: "Photo", Job: "Director of Photography"},
				},
			},
			wantCast:     "",
			wantDirector: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeCredits(tt.credits, 5)
			if got.TopCast != tt.wantCast {
				t.Fatalf("top cast=%q, want %q", got.TopCast, tt.wantCast)
			}
			if got.Director != tt.wantDirector {
				t.Fatalf("director=%q, want %q", got.Director, tt.wantDirector)
			}
		})
	}
}

func TestJoinGenres(t *testing.T) {
	genres := models.GenreMap{28: "Action", 35: "Comedy"}

	tests := []struct {
		name   string
		ids    []int
		genres models.GenreMap
		want   string
	}{
		{name: "resolved", ids: []int{28, 35}, genres: genres, want: "Action, Comedy"},
		{name: "unknown id", ids: []int{28, 10770}, genres: genres, want: "Action, 10770"},
		{name: "empty map", ids: []int{28}, genres: models.GenreMap{}, want: "28"},
		{name: "no ids", ids: nil, genres: genres, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinGenres(tt.ids, tt.genres); got != tt.want {
				t.Fatalf("JoinGenres(%v) = %q, want %q", tt.ids, got, tt.want)
			}
		})
	}
}

func TestPosterURL(t *testing.T) {
	base := "https://image.tmdb.org/t/p/w500"
	if got := PosterURL(base, ""); got != "" {
		t.Fatalf("empty poster path should give empty url, got %q", got)
	}
	if got := PosterURL(base, "/a.jpg"); got != base+"/a.jpg" {
		t.Fatalf("poster url=%q", got)
	}
}

func TestFormatRating(t *testing.T) {
	tests := map[float64]string{
		0:     "0.0",
		8:     "8.0",
		7.25:  "7.25",
		6.512: "6.512",
	}
	for rating, want := range tests {
		if got := FormatRating(rating); got != want {
			t.Fatalf("FormatRating(%v) = %q, want %q", rating, got, want)
		}
	}
}

func TestFlattenMovie(t *testing.T) {
	movie := models.Movie{
		ID:          1,
		Title:       "X",
		Overview:    "Plot",
		ReleaseDate: "2024-05-01",
		VoteAverage: 7.5,
		GenreIDs:    []int{28},
		PosterPath:  "/a.jpg",
	}
	summary := models.CreditSummary{TopCast: "A, B", Director: "D"}

	row := FlattenMovie(movie, models.GenreMap{28: "Action"}, summary, "https://image.tmdb.org/t/p/w500")
	if row.ID != 1 || row.Title != "X" || row.ReleaseDate != "2024-05-01" {
		t.Fatalf("unexpected identity fields: %+v", row)
	}
	if row.Genres != "Action" || row.VoteAverage != "7.5" {
		t.Fatalf("genres=%q rating=%q", row.Genres, row.VoteAverage)
	}
	if row.TopCast != "A, B" || row.Director != "D" {
		t.Fatalf("credits=%q/%q", row.TopCast, row.Director)
	}
	if !strings.HasSuffix(row.PosterURL, "/a.jpg") {
		t.Fatalf("poster url=%q", row.PosterURL)
	}

	movie.PosterPath = ""
	if row := FlattenMovie(movie, nil, models.CreditSummary{}, "https://image.tmdb.org/t/p/w500"); row.PosterURL != "" || row.Genres != "28" {
		t.Fatalf("row without poster/genres=%+v", row)
	}
}
