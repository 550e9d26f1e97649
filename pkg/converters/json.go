package converters

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

var ErrNoRecords = errors.New("no metadata to export")

// WriteJSON writes records as an indented JSON array. Values keep their
// native types.
func WriteJSON(w io.Writer, records []*models.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("failed to indent records: %w", err)
	}
	buf.WriteByte('\n')

	_, err = w.Write(buf.Bytes())
	return err
}

// ExportJSON writes records to path, replacing it.
func ExportJSON(path string, records []*models.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create json file: %w", err)
	}
	if err := WriteJSON(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON reads an array written by WriteJSON.
func ReadJSON(r io.Reader) ([]*models.Record, error) {
	var records []*models.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}
