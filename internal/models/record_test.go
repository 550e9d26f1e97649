package models

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNamespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain track type", in: "Video", want: "video"},
		{name: "spaces collapse", in: "Closed Caption", want: "closed_caption"},
		{name: "empty falls back", in: "  ", want: "unknown"},
		{name: "shadows size fields", in: "size", want: "media_size"},
		{name: "shadows hash field", in: "MD5", want: "media_md5"},
		{name: "shadows extraction timestamp", in: "extraction", want: "media_extraction"},
		{name: "exact base name is fine as a prefix", in: "filename", want: "filename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewNamespace(tt.in).String())
		})
	}
}

func TestProbeKeysNeverCollideWithBaseFields(t *testing.T) {
	candidates := []string{"image", "exif", "video", "audio", "general", "size", "md5", "sha256",
		"file", "extraction", "created", "error", "permissions", "data", "subtitle"}
	names := []string{"", "bytes", "mb", "hash", "type", "timestamp", "error", "width"}

	for _, c := range candidates {
		ns := NewNamespace(c)
		for _, n := range names {
			key := ns.Key(n)
			assert.False(t, IsBaseField(key), "namespace %q produced base key %q", c, key)
		}
	}
}

func TestRecordBuilder_OrderAndLastWriteWins(t *testing.T) {
	var out ProbeOutput
	out.Add(NamespaceExif, "Make", "Canon")
	out.Add(NamespaceExif, "Model", "EOS")
	out.Add(NamespaceExif, "Make", "Nikon")

	rec := NewRecordBuilder().
		SetBase(FieldFilename, "a.jpg").
		SetBase(FieldSizeBytes, 10).
		Merge(out).
		Build()

	assert.Equal(t, []string{"filename", "size_bytes", "exif_Make", "exif_Model"}, rec.Keys())
	assert.Equal(t, "Nikon", rec.String("exif_Make"))

	v, ok := rec.Get(FieldSizeBytes)
	require.True(t, ok)
	assert.Equal(t, int64(10), v)
}

func TestRecordBuilder_SetBaseIgnoresUnknownKeys(t *testing.T) {
	rec := NewRecordBuilder().SetBase("exif_Make", "x").Build()
	assert.Equal(t, 0, rec.Len())
}

func TestRecord_KeysIsACopy(t *testing.T) {
	rec := NewRecordBuilder().SetBase(FieldFilename, "a").Build()
	keys := rec.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"filename"}, rec.Keys())
}

func TestRecord_ErrorFields(t *testing.T) {
	var out ProbeOutput
	out.Add(NamespaceImage, FieldError, "bad header")
	rec := NewRecordBuilder().SetBase(FieldFilename, "a.jpg").Merge(out).Build()

	assert.False(t, rec.Failed())
	assert.Equal(t, []string{"image_error"}, rec.ErrorFields())

	failed := ErrorRecord("File not found: /nope")
	assert.True(t, failed.Failed())
	assert.Equal(t, "File not found: /nope", failed.Error())
	assert.Equal(t, []string{"error"}, failed.Keys())
}

func TestRecord_JSONRoundTripKeepsOrderAndTypes(t *testing.T) {
	var out ProbeOutput
	out.Add(NamespaceImage, "width", 640)
	out.Add(NamespaceImage, "has_transparency", false)
	rec := NewRecordBuilder().
		SetBase(FieldFilename, "a.png").
		SetBase(FieldSizeMB, 0.01).
		Merge(out).
		Build()

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filename":"a.png","size_mb":0.01,"image_width":640,"image_has_transparency":false}`, string(data))
	assert.Equal(t, `{"filename":"a.png","size_mb":0.01,"image_width":640,"image_has_transparency":false}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, rec.Equal(&back))
}

func TestRecord_Equal(t *testing.T) {
	a := NewRecordBuilder().SetBase(FieldFilename, "a").SetBase(FieldExtractionTimestamp, "t1").Build()
	b := NewRecordBuilder().SetBase(FieldFilename, "a").SetBase(FieldExtractionTimestamp, "t2").Build()

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(b, FieldExtractionTimestamp))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "True", FormatValue(true))
	assert.Equal(t, "12", FormatValue(int64(12)))
	assert.Equal(t, "0.5", FormatValue(0.5))
	assert.Equal(t, "x", FormatValue("x"))
}
