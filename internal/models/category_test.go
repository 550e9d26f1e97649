package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTable_Classify(t *testing.T) {
	table, err := NewCategoryTable(
		[]string{".jpg", "PNG"},
		[]string{".mp4"},
		[]string{"mp3"},
		[]string{".txt"},
	)
	require.NoError(t, err)

	assert.Equal(t, CategoryImage, table.Classify(".jpg"))
	assert.Equal(t, CategoryImage, table.Classify(".PNG"))
	assert.Equal(t, CategoryVideo, table.Classify(".mp4"))
	assert.Equal(t, CategoryAudio, table.Classify(".mp3"))
	assert.Equal(t, CategoryDocument, table.Classify(".txt"))
	assert.Equal(t, CategoryOther, table.Classify(".xyz"))
	assert.Equal(t, CategoryOther, table.Classify(""))

	assert.Equal(t, []string{".jpg", ".png"}, table.Extensions(CategoryImage))
	assert.True(t, table.Supported(".mp3"))
	assert.False(t, table.Supported(".zip"))
}

func TestCategoryTable_RejectsOverlap(t *testing.T) {
	_, err := NewCategoryTable([]string{".webm"}, []string{".webm"}, nil, nil)
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Video ")
	require.NoError(t, err)
	assert.Equal(t, CategoryVideo, c)

	_, err = ParseCategory("spreadsheet")
	assert.Error(t, err)
}

func TestFileExtension(t *testing.T) {
	tests := map[string]string{
		"photo.JPG":           ".jpg",
		"/a/b/archive.tar.gz": ".gz",
		".PNG":                "",
		"/x/.hidden":          "",
		".hidden.png":         ".png",
		"trailing.":           "",
		"noext":               "",
		"dir.d/noext":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FileExtension(in), in)
	}
}
