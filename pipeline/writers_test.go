package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/tmdb-crawl/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func sampleRow() *models.MovieRow {
	return &models.MovieRow{
		ID:          1,
		Title:       "Test, Movie",
		Overview:    "A \"quoted\" plot",
		ReleaseDate: "2024-05-01",
		VoteAverage: "7.5",
		Genres:      "Action, Drama",
		TopCast:     "A, B",
		Director:    "D",
		PosterURL:   "https://image.tmdb.org/t/p/w500/a.jpg",
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Fatalf("csv should start with a UTF-8 BOM, got % x", data[:min(len(data), 3)])
	}
	if bytes.Count(data, utf8BOM) != 1 {
		t.Fatalf("csv should contain exactly one BOM")
	}
	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return records
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "movies.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := WriteRows(writer, []*models.MovieRow{sampleRow()}); err != nil {
		t.Fatalf("write rows: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	header := models.RowHeader()
	for i, name := range header {
		if records[0][i] != name {
			t.Fatalf("header=%v, want %v", records[0], header)
		}
	}
	if records[1][0] != "1" || records[1][1] != "Test, Movie" || records[1][2] != "A \"quoted\" plot" {
		t.Fatalf("unexpected row: %v", records[1])
	}
	if records[1][8] != "https://image.tmdb.org/t/p/w500/a.jpg" {
		t.Fatalf("poster column=%q", records[1][8])
	}
}

func TestCSVWriterOverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movies.csv")
	if err := os.WriteFile(path, []byte("stale,data\n1,2\n3,4\n5,6\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := WriteRows(writer, nil); err != nil {
		t.Fatalf("write rows: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 1 || records[0][0] != "id" {
		t.Fatalf("expected header only, got %v", records)
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movies.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := WriteRows(writer, []*models.MovieRow{sampleRow()}); err != nil {
		t.Fatalf("write rows: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.MovieRow
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded.ID != 1 || decoded.Director != "D" {
			t.Fatalf("decoded=%+v", decoded)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestNewWriterDualWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "movies.csv")

	writer, err := NewWriter("dual", csvPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := WriteRows(writer, []*models.MovieRow{sampleRow()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}

	if records := readCSV(t, csvPath); len(records) != 2 {
		t.Fatalf("csv records=%d, want 2", len(records))
	}
	if info, err := os.Stat(filepath.Join(dir, "movies.jsonl")); err != nil || info.Size() == 0 {
		t.Fatalf("json lines sibling missing or empty")
	}
}

func TestNewWriterJSONUsesJSONLinesExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "tmdb_movies_full.csv")

	writer, err := NewWriter("json", csvPath)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := WriteRows(writer, []*models.MovieRow{sampleRow()}); err != nil {
		t.Fatalf("write json: %v", err)
	}

	if _, err := os.Stat(csvPath); !os.IsNotExist(err) {
		t.Fatalf("json format must not write %s, stat err=%v", csvPath, err)
	}
	if info, err := os.Stat(filepath.Join(dir, "tmdb_movies_full.jsonl")); err != nil || info.Size() == 0 {
		t.Fatalf("json lines output missing or empty")
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		format   string
		filename string
		want     []string
	}{
		{format: "csv", filename: "out/movies.csv", want: []string{"out/movies.csv"}},
		{format: "json", filename: "out/movies.csv", want: []string{"out/movies.jsonl"}},
		{format: "json", filename: "out/movies.json", want: []string{"out/movies.json"}},
		{format: "dual", filename: "movies.CSV", want: []string{"movies.CSV", "movies.jsonl"}},
		{format: "dual", filename: "movies", want: []string{"movies", "movies.jsonl"}},
	}

	for _, tt := range tests {
		got := OutputPaths(tt.format, tt.filename)
		if len(got) != len(tt.want) {
			t.Fatalf("OutputPaths(%q, %q) = %v, want %v", tt.format, tt.filename, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("OutputPaths(%q, %q) = %v, want %v", tt.format, tt.filename, got, tt.want)
			}
		}
	}
}

func TestNewWriterRejectsUnknownFormat(t *testing.T) {
	if _, err := NewWriter("xlsx", filepath.Join(t.TempDir(), "movies.csv")); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
