package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/tmdb-crawl/models"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVWriter writes rows as UTF-8 CSV with a leading byte order mark, so
// spreadsheet tools pick the right encoding.
type CSVWriter struct {
	file   *os.File
	bom    *transform.Writer
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter truncates filename, then writes the BOM and the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	bom := transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
	writer := csv.NewWriter(bom)
	if err := writer.Write(models.RowHeader()); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		bom:    bom,
		writer: writer,
	}, nil
}

// Write appends rows to the CSV output.
func (cw *CSVWriter) Write(rows []*models.MovieRow) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, row := range rows {
		if err := cw.writer.Write(row.Record()); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	if err := cw.bom.Close(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv encoder: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures at least the BOM and header reached the file.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes one JSON object per line, in row order.
type JSONWriter struct {
	file    *os.File
	buf     *bufio.Writer
	written int
}

// NewJSONWriter truncates filename and prepares it for JSON lines.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}
	return &JSONWriter{file: f, buf: bufio.NewWriter(f)}, nil
}

// Write appends rows and flushes them to disk.
func (jw *JSONWriter) Write(rows []*models.MovieRow) error {
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode movie %d: %w", row.ID, err)
		}
		line = append(line, '\n')
		if _, err := jw.buf.Write(line); err != nil {
			return fmt.Errorf("write movie %d: %w", row.ID, err)
		}
		jw.written++
	}
	if err := jw.buf.Flush(); err != nil {
		return fmt.Errorf("flush json lines: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	if err := jw.buf.Flush(); err != nil {
		jw.file.Close()
		return fmt.Errorf("flush json lines: %w", err)
	}
	return jw.file.Close()
}

// Validate checks that rows handed to Write actually reached the file. An
// empty file is valid for a run that found no movies.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if jw.written > 0 && info.Size() == 0 {
		return fmt.Errorf("json file is empty after %d rows", jw.written)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
