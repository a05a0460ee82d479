package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/tmdb-crawl/models"
)

// MultiWriter fans every call out to several writers, so one run can
// produce the CSV and a JSON lines copy of the same rows.
type MultiWriter struct {
	writers []OutputWriter
}

// NewMultiWriter wraps writers in call order.
func NewMultiWriter(writers ...OutputWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write stops at the first writer that fails.
func (mw *MultiWriter) Write(rows []*models.MovieRow) error {
	for _, w := range mw.writers {
		if err := w.Write(rows); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and reports all failures.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate validates every writer and reports all failures.
func (mw *MultiWriter) Validate() error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONLinesPath swaps a .csv extension for .jsonl; other names are kept.
func JSONLinesPath(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jsonl"
	}
	return filename
}

// OutputPaths lists the files a format writes for filename.
func OutputPaths(format, filename string) []string {
	switch format {
	case "json":
		return []string{JSONLinesPath(filename)}
	case "dual":
		jsonPath := JSONLinesPath(filename)
		if jsonPath == filename {
			jsonPath = filename + ".jsonl"
		}
		return []string{filename, jsonPath}
	default:
		return []string{filename}
	}
}

// NewWriter opens the writer for format (csv, json or dual). Files are
// created, or truncated, here.
func NewWriter(format, filename string) (OutputWriter, error) {
	paths := OutputPaths(format, filename)
	switch format {
	case "csv":
		return NewCSVWriter(paths[0])
	case "json":
		return NewJSONWriter(paths[0])
	case "dual":
		csvWriter, err := NewCSVWriter(paths[0])
		if err != nil {
			return nil, err
		}
		jsonWriter, err := NewJSONWriter(paths[1])
		if err != nil {
			csvWriter.Close()
			return nil, err
		}
		return NewMultiWriter(csvWriter, jsonWriter), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
