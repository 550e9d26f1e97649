package models

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// FileCategory classifies a file by extension and selects the content probe
// that runs for it.
type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryVideo    FileCategory = "video"
	CategoryAudio    FileCategory = "audio"
	CategoryDocument FileCategory = "document"
	CategoryOther    FileCategory = "other"
)

// Categories lists every category that has an extension set.
var Categories = []FileCategory{CategoryImage, CategoryVideo, CategoryAudio, CategoryDocument}

// ParseCategory converts a category name into a FileCategory.
func ParseCategory(s string) (FileCategory, error) {
	switch c := FileCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryImage, CategoryVideo, CategoryAudio, CategoryDocument, CategoryOther:
		return c, nil
	default:
		return "", fmt.Errorf("unknown file category %q", s)
	}
}

// CategoryTable maps lowercased extensions (with leading dot) to categories.
// It is immutable once built.
type CategoryTable struct {
	byExt map[string]FileCategory
	byCat map[FileCategory][]string
}

// NewCategoryTable builds a table from the four extension sets. Extensions
// are normalised to lowercase with a leading dot. An extension listed under
// more than one category is rejected.
func NewCategoryTable(image, video, audio, document []string) (*CategoryTable, error) {
	t := &CategoryTable{
		byExt: make(map[string]FileCategory),
		byCat: make(map[FileCategory][]string),
	}
	sets := []struct {
		cat  FileCategory
		exts []string
	}{
		{CategoryImage, image},
		{CategoryVideo, video},
		{CategoryAudio, audio},
		{CategoryDocument, document},
	}
	for _, set := range sets {
		for _, raw := range set.exts {
			ext := NormalizeExtension(raw)
			if ext == "" {
				continue
			}
			if prev, ok := t.byExt[ext]; ok && prev != set.cat {
				return nil, fmt.Errorf("extension %s listed as both %s and %s", ext, prev, set.cat)
			}
			if _, ok := t.byExt[ext]; ok {
				continue
			}
			t.byExt[ext] = set.cat
			t.byCat[set.cat] = append(t.byCat[set.cat], ext)
		}
		sort.Strings(t.byCat[set.cat])
	}
	return t, nil
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// FileExtension returns the lowercased extension of the base name of path,
// with its dot. A leading dot is part of the name, so ".png" has none, and
// neither does a name ending in a dot.
func FileExtension(path string) string {
	name := filepath.Base(path)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// Classify returns the category of ext; unknown extensions are CategoryOther.
func (t *CategoryTable) Classify(ext string) FileCategory {
	if c, ok := t.byExt[strings.ToLower(ext)]; ok {
		return c
	}
	return CategoryOther
}

// Extensions returns a copy of the sorted extension set for cat.
func (t *CategoryTable) Extensions(cat FileCategory) []string {
	exts := make([]string, len(t.byCat[cat]))
	copy(exts, t.byCat[cat])
	return exts
}

// Supported reports whether ext belongs to any known category.
func (t *CategoryTable) Supported(ext string) bool {
	_, ok := t.byExt[strings.ToLower(ext)]
	return ok
}
