package converters

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

// Report group names in display order.
const (
	GroupFileInfo  = "File Info"
	GroupImageData = "Image Data"
	GroupMediaData = "Media Data"
	GroupExifData  = "EXIF Data"
	GroupOther     = "Other"
)

var groupOrder = []string{GroupFileInfo, GroupImageData, GroupMediaData, GroupExifData, GroupOther}

var fileInfoKeys = map[string]struct{}{
	models.FieldFilename:  {},
	models.FieldFilepath:  {},
	models.FieldSizeBytes: {},
	models.FieldSizeMB:    {},
	models.FieldFileType:  {},
	models.FieldExtension: {},
}

var mediaPrefixes = []string{"video_", "audio_", "general_", "subtitle_", "data_", "attachment_", "media_"}

type Item struct {
	Key   string
	Value string
}

type Group struct {
	Name  string
	Items []Item
}

func groupOf(key string) string {
	switch {
	case strings.HasPrefix(key, models.NamespaceExif.Prefix()):
		return GroupExifData
	case strings.HasPrefix(key, models.NamespaceImage.Prefix()):
		return GroupImageData
	}
	for _, p := range mediaPrefixes {
		if strings.HasPrefix(key, p) {
			return GroupMediaData
		}
	}
	if _, ok := fileInfoKeys[key]; ok {
		return GroupFileInfo
	}
	return GroupOther
}

// GroupRecord splits rec into display groups. Empty groups are omitted and
// keys are sorted within a group.
func GroupRecord(rec *models.Record) []Group {
	byName := make(map[string][]Item)
	for _, key := range rec.Keys() {
		g := groupOf(key)
		byName[g] = append(byName[g], Item{Key: key, Value: rec.String(key)})
	}

	var groups []Group
	for _, name := range groupOrder {
		items := byName[name]
		if len(items) == 0 {
			continue
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
		groups = append(groups, Group{Name: name, Items: items})
	}
	return groups
}

// WriteReport prints rec as a grouped, human readable block.
func WriteReport(w io.Writer, rec *models.Record) error {
	name := rec.String(models.FieldFilename)
	if name == "" {
		name = "Unknown"
	}
	rule := strings.Repeat("=", 60)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nMETADATA FOR: %s\n%s\n", rule, name, rule)
	for _, g := range GroupRecord(rec) {
		fmt.Fprintf(&b, "\n[%s]\n", g.Name)
		for _, it := range g.Items {
			fmt.Fprintf(&b, "  %s: %s\n", it.Key, it.Value)
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
