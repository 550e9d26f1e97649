package image

import (
	"bytes"
	"context"
	"encoding/binary"
	stdimage "image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

func encodePNG(t *testing.T, img stdimage.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// withExif inserts an APP1 segment holding a little-endian TIFF block with
// Make="Canon" and Orientation=1 right after the JPEG SOI marker.
func withExif(t *testing.T, jpg []byte) []byte {
	t.Helper()
	var tiffBuf bytes.Buffer
	le := binary.LittleEndian
	tiffBuf.WriteString("II")
	binary.Write(&tiffBuf, le, uint16(42))
	binary.Write(&tiffBuf, le, uint32(8))

	maker := []byte("Canon\x00")
	binary.Write(&tiffBuf, le, uint16(2))
	// Make, ASCII, stored at offset 38
	binary.Write(&tiffBuf, le, uint16(0x010F))
	binary.Write(&tiffBuf, le, uint16(2))
	binary.Write(&tiffBuf, le, uint32(len(maker)))
	binary.Write(&tiffBuf, le, uint32(38))
	// Orientation, SHORT, inline
	binary.Write(&tiffBuf, le, uint16(0x0112))
	binary.Write(&tiffBuf, le, uint16(3))
	binary.Write(&tiffBuf, le, uint32(1))
	binary.Write(&tiffBuf, le, uint16(1))
	binary.Write(&tiffBuf, le, uint16(0))
	binary.Write(&tiffBuf, le, uint32(0))
	tiffBuf.Write(maker)

	payload := append([]byte("Exif\x00\x00"), tiffBuf.Bytes()...)
	var seg bytes.Buffer
	seg.Write([]byte{0xFF, 0xE1})
	binary.Write(&seg, binary.BigEndian, uint16(len(payload)+2))
	seg.Write(payload)

	out := append([]byte{}, jpg[:2]...)
	out = append(out, seg.Bytes()...)
	return append(out, jpg[2:]...)
}

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func fieldMap(out models.ProbeOutput) map[string]any {
	m := make(map[string]any, len(out))
	for _, f := range out {
		m[f.Key()] = f.Value
	}
	return m
}

func TestProbePNGWithoutExif(t *testing.T) {
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, 4, 3))
	path := writeFixture(t, "pixel.png", encodePNG(t, img))

	out, err := NewProbe().Probe(context.Background(), path)
	require.NoError(t, err)

	fields := fieldMap(out)
	assert.Equal(t, int64(4), fields["image_width"])
	assert.Equal(t, int64(3), fields["image_height"])
	assert.Equal(t, "PNG", fields["image_format"])
	assert.Equal(t, NoExifStatus, fields["exif_status"])
	assert.NotContains(t, fields, "image_error")
}

func TestProbeJPEGWithExif(t *testing.T) {
	path := writeFixture(t, "photo.jpg", withExif(t, encodeJPEG(t, 16, 8)))

	out, err := NewProbe().Probe(context.Background(), path)
	require.NoError(t, err)

	fields := fieldMap(out)
	assert.Equal(t, "JPEG", fields["image_format"])
	assert.Equal(t, "RGB", fields["image_mode"])
	assert.Equal(t, false, fields["image_has_transparency"])
	assert.Equal(t, "Canon", fields["exif_Make"])
	assert.Equal(t, int64(1), fields["exif_Orientation"])
	assert.NotContains(t, fields, "exif_status")
}

func TestProbeExifOrderIsStable(t *testing.T) {
	path := writeFixture(t, "photo.jpg", withExif(t, encodeJPEG(t, 16, 8)))
	p := NewProbe()

	keys := func() []string {
		out, err := p.Probe(context.Background(), path)
		require.NoError(t, err)
		ks := make([]string, len(out))
		for i, f := range out {
			ks[i] = f.Key()
		}
		return ks
	}

	first := keys()
	assert.Equal(t, []string{"exif_Make", "exif_Orientation"}, first[len(first)-2:])
	for i := 0; i < 50; i++ {
		require.Equal(t, first, keys(), "run %d", i)
	}
}

func TestProbeJPEGWithoutExif(t *testing.T) {
	path := writeFixture(t, "plain.jpeg", encodeJPEG(t, 8, 8))

	out, err := NewProbe().Probe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, NoExifStatus, fieldMap(out)["exif_status"])
}

func TestProbeTruncatedJPEG(t *testing.T) {
	data := encodeJPEG(t, 64, 64)
	path := writeFixture(t, "broken.jpg", data[:len(data)/2])

	_, err := NewProbe().Probe(context.Background(), path)
	assert.Error(t, err)
}

func TestProbeNotAnImage(t *testing.T) {
	path := writeFixture(t, "fake.png", []byte("definitely not a png"))

	_, err := NewProbe().Probe(context.Background(), path)
	assert.Error(t, err)
}

func TestModeName(t *testing.T) {
	tests := []struct {
		model color.Model
		want  string
	}{
		{color.YCbCrModel, "RGB"},
		{color.RGBAModel, "RGB"},
		{color.NRGBAModel, "RGBA"},
		{color.GrayModel, "L"},
		{color.CMYKModel, "CMYK"},
		{color.Palette{color.Black}, "P"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModeName(tt.model))
	}
}

func TestGIFTransparency(t *testing.T) {
	pal := color.Palette{color.Black, color.Transparent}
	img := stdimage.NewPaletted(stdimage.Rect(0, 0, 2, 2), pal)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	path := writeFixture(t, "anim.gif", buf.Bytes())

	out, err := NewProbe().Probe(context.Background(), path)
	require.NoError(t, err)

	fields := fieldMap(out)
	assert.Equal(t, "GIF", fields["image_format"])
	assert.Equal(t, "P", fields["image_mode"])
	assert.Equal(t, true, fields["image_has_transparency"])

	assert.False(t, HasTransparency(color.Palette{color.Black, color.White}))
}
