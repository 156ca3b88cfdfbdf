package conversion

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"convertly/internal/domain"
	"convertly/internal/domain/models"
)

func TestPassthroughConverter_RelabelsBytes(t *testing.T) {
	tests := []struct {
		name     string
		category models.Category
		target   string
		wantMIME string
	}{
		{name: "audio", category: models.CategoryAudio, target: "wav", wantMIME: "audio/wav"},
		{name: "video", category: models.CategoryVideo, target: "mkv", wantMIME: "video/x-matroska"},
		{name: "archive", category: models.CategoryArchive, target: "7z", wantMIME: "application/x-7z-compressed"},
	}

	source := []byte{0x00, 0x01, 0x02, 0x03, 0xFF}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPassthroughConverter(tt.category, testLogger())

			result, err := c.Convert(context.Background(), &models.ConversionRequest{
				SourceBytes: source,
			}, formatByID(t, tt.target))
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}

			if !bytes.Equal(result.File.Bytes, source) {
				t.Error("relabeled bytes differ from source")
			}
			if result.File.MIMEType != tt.wantMIME {
				t.Errorf("mime = %q, want %q", result.File.MIMEType, tt.wantMIME)
			}
		})
	}
}

func TestPassthroughConverter_AdvisoryIsAlwaysPresent(t *testing.T) {
	c := NewPassthroughConverter(models.CategoryAudio, testLogger())

	result, err := c.Convert(context.Background(), &models.ConversionRequest{
		SourceBytes: []byte{0xFF, 0xFB},
	}, formatByID(t, "flac"))
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	found := false
	for _, a := range result.Advisories {
		if strings.Contains(a, "no transcoding") {
			found = true
		}
	}
	if !found {
		t.Fatalf("result missing the no-transcoding advisory: %v", result.Advisories)
	}
}

func TestPassthroughConverter_OutputDoesNotAliasSource(t *testing.T) {
	c := NewPassthroughConverter(models.CategoryArchive, testLogger())
	source := []byte{1, 2, 3}

	result, err := c.Convert(context.Background(), &models.ConversionRequest{
		SourceBytes: source,
	}, formatByID(t, "tar"))
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	source[0] = 99
	if result.File.Bytes[0] == 99 {
		t.Error("output aliases the request buffer")
	}
}

func TestPassthroughConverter_NilSource(t *testing.T) {
	c := NewPassthroughConverter(models.CategoryVideo, testLogger())

	_, err := c.Convert(context.Background(), &models.ConversionRequest{}, formatByID(t, "mp4"))
	if !errors.Is(err, domain.ErrSourceRead) {
		t.Fatalf("error = %v, want ErrSourceRead", err)
	}
}
