package converters

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

func imageRecord(dir, name string, width int64) *models.Record {
	var out models.ProbeOutput
	out.Add(models.NamespaceImage, "width", width)
	out.Add(models.NamespaceImage, "has_transparency", false)
	out.Add(models.NamespaceExif, "Make", "Canon")

	return models.NewRecordBuilder().
		SetBase(models.FieldFilename, name).
		SetBase(models.FieldFilepath, filepath.Join(dir, name)).
		SetBase(models.FieldDirectory, dir).
		SetBase(models.FieldExtension, ".jpg").
		SetBase(models.FieldFileType, "image").
		SetBase(models.FieldSizeMB, 0.25).
		SetBase("md5_hash", "abc").
		Merge(out).
		Build()
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSinkHeaderOnFirstWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "metadata.csv")
	sink := NewCSVSink(path)

	first := imageRecord(dir, "a.jpg", 640)
	dropped, err := sink.Write(first)
	require.NoError(t, err)
	assert.Empty(t, dropped)

	second := models.NewRecordBuilder().
		SetBase(models.FieldFilename, "b.txt").
		SetBase(models.FieldDirectory, dir).
		SetBase(models.FieldFileType, "document").
		SetBase(models.FieldPermissions, "644").
		Build()
	dropped, err = sink.Write(second)
	require.NoError(t, err)
	assert.Equal(t, []string{models.FieldPermissions}, dropped)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, first.Keys(), rows[0])
	assert.Equal(t, "640", rows[1][7])
	assert.Equal(t, "False", rows[1][8])
	assert.Equal(t, "0.25", rows[1][5])
	assert.Equal(t, "b.txt", rows[2][0])
	assert.Equal(t, "", rows[2][1])
	assert.Len(t, rows[2], len(rows[0]))
}

func TestCSVSinkReusesExistingHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte("filename,image_width\nold.jpg,1\n"), 0o644))

	dropped, err := NewCSVSink(path).Write(imageRecord(dir, "new.jpg", 2))
	require.NoError(t, err)
	assert.Contains(t, dropped, "exif_Make")

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"new.jpg", "2"}, rows[2])
}

func TestCSVSinkRejectsFailedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	_, err := NewCSVSink(path).Write(models.ErrorRecord("File not found: x"))
	assert.ErrorIs(t, err, ErrFailedRecord)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFolderCSV(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	f := NewFolderCSV("")

	pathA, _, err := f.Write(imageRecord(dirA, "a.jpg", 1))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dirA, "metadata_output.csv"), pathA)

	_, _, err = f.Write(imageRecord(dirA, "a2.jpg", 2))
	require.NoError(t, err)
	pathB, _, err := f.Write(imageRecord(dirB, "b.jpg", 3))
	require.NoError(t, err)

	assert.Len(t, readCSV(t, pathA), 3)
	assert.Len(t, readCSV(t, pathB), 2)

	_, _, err = f.Write(models.ErrorRecord("boom"))
	assert.ErrorIs(t, err, ErrFailedRecord)
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	recs := []*models.Record{imageRecord(dir, "a.jpg", 640), imageRecord(dir, "b.jpg", 320)}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, recs))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[\n  {\n    \"filename\": \"a.jpg\""))
	assert.Contains(t, out, `"image_width": 640`)
	assert.Contains(t, out, `"image_has_transparency": false`)

	back, err := ReadJSON(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.True(t, recs[0].Equal(back[0]))
	assert.Equal(t, recs[1].Keys(), back[1].Keys())

	assert.ErrorIs(t, WriteJSON(&buf, nil), ErrNoRecords)
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.json")
	require.NoError(t, ExportJSON(path, []*models.Record{imageRecord(dir, "a.jpg", 1)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"exif_Make": "Canon"`)
}

func TestGroupRecord(t *testing.T) {
	var out models.ProbeOutput
	out.Add(models.NamespaceGeneral, "duration", "1.0")
	out.Add(models.NewNamespace("audio_2"), "codec_name", "aac")
	rec := models.NewRecordBuilder().
		SetBase(models.FieldFilename, "a.jpg").
		SetBase(models.FieldDirectory, "/photos").
		SetBase(models.FieldExtractionTimestamp, "2024-01-01T00:00:00").
		Merge(out).
		Build()

	groups := GroupRecord(rec)
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	assert.Equal(t, []string{GroupFileInfo, GroupMediaData, GroupOther}, names)
	assert.Equal(t, []Item{{"audio_2_codec_name", "aac"}, {"general_duration", "1.0"}}, groups[1].Items)
	assert.Equal(t, []Item{{"directory", "/photos"}, {"extraction_timestamp", "2024-01-01T00:00:00"}}, groups[2].Items)
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, imageRecord("/photos", "a.jpg", 640)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, strings.Repeat("=", 60)+"\nMETADATA FOR: a.jpg\n"))
	assert.Contains(t, out, "\n[Image Data]\n  image_has_transparency: False\n  image_width: 640\n")
	assert.Contains(t, out, "\n[EXIF Data]\n  exif_Make: Canon\n")
	assert.Less(t, strings.Index(out, "[File Info]"), strings.Index(out, "[Image Data]"))
}
