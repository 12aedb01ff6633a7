package image

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func sample() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 40), B: 90, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, fn func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(&buf, sample()))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	return encode(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) })
}

func bmpBytes(t *testing.T) []byte {
	return encode(t, func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) })
}

func gifBytes(t *testing.T) []byte {
	return encode(t, func(b *bytes.Buffer, m image.Image) error { return gif.Encode(b, m, nil) })
}

func tiffBytes(t *testing.T) []byte {
	return encode(t, func(b *bytes.Buffer, m image.Image) error { return tiff.Encode(b, m, nil) })
}

func decodedFormat(t *testing.T, data []byte) string {
	t.Helper()
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return format
}

func TestNormalize_AcceptedFormatIsByteIdentical(t *testing.T) {
	n := NewNormalizer(PathFormats, nil)
	in := pngBytes(t)

	out := n.Normalize(in)

	assert.Equal(t, in, out.Data)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.False(t, out.Transcoded)
}

func TestNormalize_UnsupportedFormatBecomesJPEG(t *testing.T) {
	tests := []struct {
		name     string
		accepted []string
		data     []byte
		format   string
	}{
		{"bmp on path variant", PathFormats, bmpBytes(t), "bmp"},
		{"tiff on bytes variant", BytesFormats, tiffBytes(t), "tiff"},
		{"gif on bytes variant", BytesFormats, gifBytes(t), "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewNormalizer(tt.accepted, nil).Normalize(tt.data)

			assert.True(t, out.Transcoded)
			assert.Equal(t, tt.format, out.Format)
			assert.Equal(t, "image/jpeg", out.MIMEType)
			assert.Equal(t, "jpeg", decodedFormat(t, out.Data))

			cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
			require.NoError(t, err)
			assert.Equal(t, 8, cfg.Width)
			assert.Equal(t, 6, cfg.Height)
		})
	}
}

func TestNormalize_GIFAcceptedOnPathVariant(t *testing.T) {
	in := gifBytes(t)
	out := NewNormalizer(PathFormats, nil).Normalize(in)
	assert.Equal(t, in, out.Data)
	assert.Equal(t, "image/gif", out.MIMEType)
}

func TestNormalize_UndecodablePassesThrough(t *testing.T) {
	in := append(make([]byte, 128), []byte("DICM not really an image")...)
	out := NewNormalizer(BytesFormats, nil).Normalize(in)

	assert.Equal(t, in, out.Data)
	assert.Equal(t, FallbackMIME, out.MIMEType)
	assert.Empty(t, out.Format)
	assert.False(t, out.Transcoded)
}

func TestNormalize_TruncatedBodyPassesThrough(t *testing.T) {
	full := bmpBytes(t)
	// header decodes but pixel data is missing
	in := full[:60]
	out := NewNormalizer(PathFormats, nil).Normalize(in)

	assert.Equal(t, in, out.Data)
	assert.Equal(t, FallbackMIME, out.MIMEType)
	assert.False(t, out.Transcoded)
}
