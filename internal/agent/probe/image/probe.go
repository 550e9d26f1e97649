// Package image reads raster image properties and EXIF tags.
package image

import (
	"context"
	"fmt"
	stdimage "image"
	"image/color"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/webp"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

// NoExifStatus is reported when an image decodes but carries no EXIF block.
const NoExifStatus = "No EXIF data found"

// Probe is the content probe for raster images.
type Probe struct{}

func NewProbe() *Probe {
	return &Probe{}
}

func (p *Probe) Name() string { return "image" }

func (p *Probe) Namespace() models.Namespace { return models.NamespaceImage }

// Probe decodes the whole image so truncated files are rejected, then reads
// EXIF tags. Any decode failure is returned as an error; missing EXIF is not.
func (p *Probe) Probe(ctx context.Context, path string) (models.ProbeOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	_, format, err := stdimage.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	// the decoded model carries per-frame transparency that the header lacks
	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s image: %w", format, err)
	}
	bounds := img.Bounds()
	model := img.ColorModel()

	var out models.ProbeOutput
	out.Add(models.NamespaceImage, "width", int64(bounds.Dx()))
	out.Add(models.NamespaceImage, "height", int64(bounds.Dy()))
	out.Add(models.NamespaceImage, "mode", ModeName(model))
	out.Add(models.NamespaceImage, "format", strings.ToUpper(format))
	out.Add(models.NamespaceImage, "has_transparency", HasTransparency(model))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	out = append(out, readExif(f)...)
	return out, nil
}

func readExif(r io.Reader) models.ProbeOutput {
	var out models.ProbeOutput
	x, err := exif.Decode(r)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		out.Add(models.NamespaceExif, "status", NoExifStatus)
		return out
	}

	w := &exifWalker{}
	_ = x.Walk(w)
	if len(w.out) == 0 {
		out.Add(models.NamespaceExif, "status", NoExifStatus)
		return out
	}
	// Walk ranges over a map.
	sort.SliceStable(w.out, func(i, j int) bool { return w.out[i].Name < w.out[j].Name })
	return w.out
}

type exifWalker struct {
	out models.ProbeOutput
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag == nil {
		return nil
	}
	w.out.Add(models.NamespaceExif, string(name), TagValue(tag))
	return nil
}

// TagValue converts a tag into a record value: single integers and
// rationals keep their numeric type, ASCII becomes a string and everything
// else its string rendering.
func TagValue(tag *tiff.Tag) any {
	switch tag.Format() {
	case tiff.StringVal:
		if s, err := tag.StringVal(); err == nil {
			return s
		}
	case tiff.IntVal:
		if tag.Count == 1 {
			if v, err := tag.Int64(0); err == nil {
				return v
			}
		}
	case tiff.RatVal:
		if tag.Count == 1 {
			if num, den, err := tag.Rat2(0); err == nil && den != 0 {
				return float64(num) / float64(den)
			}
		}
	case tiff.FloatVal:
		if tag.Count == 1 {
			if v, err := tag.Float(0); err == nil {
				return v
			}
		}
	}
	return tag.String()
}

// ModeName maps a colour model onto the conventional mode names
// (RGB, RGBA, L, P, CMYK ...).
func ModeName(m color.Model) string {
	switch m {
	case color.YCbCrModel, color.RGBAModel, color.RGBA64Model:
		return "RGB"
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel:
		return "RGBA"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	return "unknown"
}

// HasTransparency reports whether images of model m can carry alpha.
// Paletted images count when any palette entry is not fully opaque.
func HasTransparency(m color.Model) bool {
	switch ModeName(m) {
	case "RGBA", "A":
		return true
	case "P":
		for _, c := range m.(color.Palette) {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
