package image

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadValidator_Inspect(t *testing.T) {
	v := NewUploadValidator(nil)

	png := pngBytes(t)
	res := v.Inspect(png, "png")
	assert.True(t, res.Decodable)
	assert.Equal(t, "png", res.Format)
	assert.Equal(t, 8, res.Width)
	assert.Equal(t, "image/png", res.SniffedMIME)
	assert.Empty(t, res.SecurityRisk)

	dicom := append(make([]byte, 128), []byte("DICM....")...)
	res = v.Inspect(dicom, ".DCM")
	assert.False(t, res.Decodable)
	assert.Equal(t, "dicom", res.Format)

	exe := append([]byte{0x4D, 0x5A}, bytes.Repeat([]byte{0}, 64)...)
	res = v.Inspect(exe, "jpg")
	assert.Contains(t, res.SecurityRisk, "executable")

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	res = v.Inspect(svg, "png")
	assert.Contains(t, res.SecurityRisk, "<script")
}

func TestPipeline_Process(t *testing.T) {
	p := NewPipeline(Options{MaxSize: 1024})

	out, err := p.Process(context.Background(), Input{
		Reader:         bytes.NewReader(pngBytes(t)),
		DeclaredFormat: "png",
		Source:         "exam.png",
	})
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), out.Bytes)
	assert.Equal(t, "png", out.Inspection.Format)
}

func TestPipeline_RejectsOversized(t *testing.T) {
	p := NewPipeline(Options{MaxSize: 10})

	_, err := p.Process(context.Background(), Input{Reader: strings.NewReader(strings.Repeat("x", 11))})
	assert.True(t, errors.Is(err, ErrTooLarge))

	out, err := p.Process(context.Background(), Input{Reader: strings.NewReader(strings.Repeat("x", 10))})
	require.NoError(t, err)
	assert.Len(t, out.Bytes, 10)
}

func TestPipeline_RequiresReader(t *testing.T) {
	_, err := NewPipeline(Options{}).Process(context.Background(), Input{})
	assert.Error(t, err)
}

func TestUploadValidator_FlagsSniffedScript(t *testing.T) {
	v := NewUploadValidator(nil)

	// No byte signature matches a script, only the sniffed type does.
	script := []byte("#!/bin/sh\nrm -rf /tmp/cache\n")
	res := v.Inspect(script, "png")
	assert.Contains(t, res.SniffedMIME, "text/x-shellscript")
	assert.Contains(t, res.SecurityRisk, "text/x-shellscript")

	plain := v.Inspect([]byte("fake png"), "png")
	assert.Empty(t, plain.SecurityRisk)
}

func TestPipeline_RejectsUnsafeContent(t *testing.T) {
	p := NewPipeline(Options{MaxSize: 1024})

	elf := append([]byte{0x7F, 0x45, 0x4C, 0x46, 0x02, 0x01, 0x01}, bytes.Repeat([]byte{0}, 64)...)
	_, err := p.Process(context.Background(), Input{Reader: bytes.NewReader(elf), DeclaredFormat: "png", Source: "scan.png"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsafeContent))
	assert.Contains(t, err.Error(), "executable signature")

	dicom := append(make([]byte, 128), []byte("DICM....")...)
	out, err := p.Process(context.Background(), Input{Reader: bytes.NewReader(dicom), DeclaredFormat: "dcm"})
	require.NoError(t, err)
	assert.Equal(t, "dicom", out.Inspection.Format)
	assert.False(t, out.Inspection.Decodable)
}
