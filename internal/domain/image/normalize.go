package image

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"exam-analyzer-go/internal/utils"
)

// FallbackMIME is used for anything the decoders cannot read.
const FallbackMIME = "image/jpeg"

var (
	// PathFormats are forwarded untouched when analysing a file on disk.
	PathFormats = []string{"jpeg", "png", "webp", "gif"}
	// BytesFormats are forwarded untouched when analysing in-memory uploads.
	BytesFormats = []string{"jpeg", "png", "webp"}
)

// Normalizer re-encodes images whose format the model does not accept.
type Normalizer struct {
	accepted map[string]bool
	quality  int
	logger   *utils.Logger
}

func NewNormalizer(accepted []string, logger *utils.Logger) *Normalizer {
	set := make(map[string]bool, len(accepted))
	for _, f := range accepted {
		set[f] = true
	}
	return &Normalizer{
		accepted: set,
		quality:  jpeg.DefaultQuality,
		logger:   logger,
	}
}

// Normalize never fails. Accepted formats are returned byte-identical,
// other decodable formats are flattened to RGB and encoded as JPEG, and
// undecodable payloads pass through labelled FallbackMIME.
func (n *Normalizer) Normalize(data []byte) Normalized {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		n.logger.DebugTag("ANALYSIS", "image not decodable, forwarding as %s: %v", FallbackMIME, err)
		return Normalized{Data: data, MIMEType: FallbackMIME}
	}

	if n.accepted[format] {
		return Normalized{Data: data, MIMEType: "image/" + format, Format: format}
	}

	out, err := n.toJPEG(data)
	if err != nil {
		n.logger.WarnTag("ANALYSIS", "transcode %s to jpeg failed, forwarding original: %v", format, err)
		return Normalized{Data: data, MIMEType: FallbackMIME, Format: format}
	}
	n.logger.DebugTag("ANALYSIS", "transcoded %s image to jpeg (%d -> %d bytes)", format, len(data), len(out))
	return Normalized{Data: out, MIMEType: "image/jpeg", Format: format, Transcoded: true}
}

func (n *Normalizer) toJPEG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	// JPEG has no alpha channel; drop it the way an RGB conversion would.
	bounds := src.Bounds()
	rgb := image.NewRGBA(bounds)
	draw.Draw(rgb, bounds, src, bounds.Min, draw.Src)
	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: n.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
