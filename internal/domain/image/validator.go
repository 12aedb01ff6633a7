package image

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"exam-analyzer-go/internal/utils"
)

// UploadValidator inspects uploaded payloads. Undecodable data such as
// DICOM passes; only executables, archives and scripted markup are flagged.
type UploadValidator struct {
	logger *utils.Logger
}

func NewUploadValidator(logger *utils.Logger) *UploadValidator {
	return &UploadValidator{logger: logger}
}

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
	"bmp":  {0x42, 0x4D},
}

// dicomMagic sits at offset 128 of a DICOM Part 10 file.
var dicomMagic = []byte("DICM")

// Inspect decodes the image header, sniffs the content type and scans for
// executable or archive signatures. declaredFormat is the file extension
// without the dot.
func (v *UploadValidator) Inspect(data []byte, declaredFormat string) Inspection {
	declaredFormat = strings.ToLower(strings.TrimPrefix(declaredFormat, "."))
	sniffed := mimetype.Detect(data)
	result := Inspection{
		FileSize:    int64(len(data)),
		SniffedMIME: sniffed.String(),
	}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		result.Decodable = true
		result.Format = format
		result.Width = cfg.Width
		result.Height = cfg.Height
	} else if isDICOM(data) {
		result.Format = "dicom"
	}

	if declaredFormat != "" && !v.signatureMatches(data, declaredFormat) {
		v.logger.WarnTag("HTTP", "upload signature mismatch: declared=%s header=%x sniffed=%s",
			declaredFormat, data[:min(len(data), 16)], result.SniffedMIME)
	}

	risk := v.scanForMaliciousContent(data)
	if risk == "" {
		risk = blockedMIME(sniffed)
	}
	if risk != "" {
		result.SecurityRisk = risk
		v.logger.WarnTag("HTTP", "suspicious upload content: %s", risk)
	}

	v.logger.DebugTag("HTTP", "upload inspected: format=%s size=%d %dx%d sniffed=%s",
		result.Format, result.FileSize, result.Width, result.Height, result.SniffedMIME)
	return result
}

// blockedTypes are sniffed types that are never exam images.
var blockedTypes = []string{
	"application/x-elf",
	"application/vnd.microsoft.portable-executable",
	"application/x-mach-binary",
	"application/x-msdownload",
	"application/zip",
	"application/gzip",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
	"application/x-tar",
	"text/html",
	"application/javascript",
	"text/x-shellscript",
}

func blockedMIME(m *mimetype.MIME) string {
	for ; m != nil; m = m.Parent() {
		for _, blocked := range blockedTypes {
			if m.Is(blocked) {
				return "sniffed type " + m.String()
			}
		}
	}
	return ""
}

func isDICOM(data []byte) bool {
	return len(data) >= 132 && bytes.Equal(data[128:132], dicomMagic)
}

func (v *UploadValidator) signatureMatches(data []byte, format string) bool {
	if format == "dcm" {
		return isDICOM(data)
	}
	signature, ok := imageSignatures[format]
	if !ok {
		return true
	}
	return bytes.HasPrefix(data, signature)
}

func (v *UploadValidator) scanForMaliciousContent(data []byte) string {
	executables := [][]byte{
		{0x4D, 0x5A},
		{0x7F, 0x45, 0x4C, 0x46},
	}
	for _, signature := range executables {
		if bytes.HasPrefix(data, signature) {
			return fmt.Sprintf("executable signature %x", signature)
		}
	}

	archives := [][]byte{
		{0x50, 0x4B, 0x03, 0x04},
		{0x1F, 0x8B, 0x08},
	}
	for _, signature := range archives {
		if bytes.HasPrefix(data, signature) {
			return fmt.Sprintf("archive signature %x", signature)
		}
	}

	head := strings.ToLower(string(data[:min(len(data), 4096)]))
	if strings.Contains(head, "<svg") || strings.Contains(head, "<html") {
		for _, token := range []string{"<script", "javascript:", "onload=", "onerror=", "<iframe"} {
			if strings.Contains(head, token) {
				return "markup with " + token
			}
		}
	}
	return ""
}
