package converters

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

var ErrFailedRecord = errors.New("record holds only an error")

// CSVSink appends records as rows of one CSV file. The first row written to
// an empty file fixes the header; later rows are aligned to it.
type CSVSink struct {
	mu     sync.Mutex
	path   string
	header []string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Path() string { return s.path }

// Write appends rec and returns the keys that were dropped because the
// existing header has no column for them. Header columns missing from rec
// are left empty.
func (s *CSVSink) Write(rec *models.Record) ([]string, error) {
	if rec.Failed() {
		return nil, ErrFailedRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.header == nil {
		header, err := readHeader(s.path)
		if err != nil {
			return nil, err
		}
		s.header = header
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create csv directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	newHeader := s.header == nil
	if newHeader {
		s.header = rec.Keys()
		if err := w.Write(s.header); err != nil {
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}
	}

	row, dropped := alignRow(s.header, rec)
	if err := w.Write(row); err != nil {
		return nil, fmt.Errorf("failed to write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		if newHeader {
			s.header = nil
		}
		return nil, fmt.Errorf("failed to write csv row: %w", err)
	}
	return dropped, nil
}

func alignRow(header []string, rec *models.Record) ([]string, []string) {
	cols := make(map[string]struct{}, len(header))
	row := make([]string, len(header))
	for i, key := range header {
		cols[key] = struct{}{}
		row[i] = rec.String(key)
	}

	var dropped []string
	for _, key := range rec.Keys() {
		if _, ok := cols[key]; !ok {
			dropped = append(dropped, key)
		}
	}
	return row, dropped
}

// readHeader returns nil when the file is missing or empty.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	return header, nil
}

// FolderCSV writes each record to <filename> in the record's own directory.
type FolderCSV struct {
	mu       sync.Mutex
	filename string
	sinks    map[string]*CSVSink
}

func NewFolderCSV(filename string) *FolderCSV {
	if filename == "" {
		filename = "metadata_output.csv"
	}
	return &FolderCSV{filename: filename, sinks: make(map[string]*CSVSink)}
}

// Write returns the CSV path used and the dropped keys.
func (f *FolderCSV) Write(rec *models.Record) (string, []string, error) {
	if rec.Failed() {
		return "", nil, ErrFailedRecord
	}
	dir := rec.String(models.FieldDirectory)
	if dir == "" {
		return "", nil, fmt.Errorf("record has no %s field", models.FieldDirectory)
	}
	path := filepath.Join(dir, f.filename)

	f.mu.Lock()
	sink, ok := f.sinks[path]
	if !ok {
		sink = NewCSVSink(path)
		f.sinks[path] = sink
	}
	f.mu.Unlock()

	dropped, err := sink.Write(rec)
	return path, dropped, err
}
