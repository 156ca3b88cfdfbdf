package conversion

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register webp decoder

	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/domain/services"
)

// jpegQuality is the fixed encode quality for lossy raster targets.
// High-range on purpose: this tool optimizes for fidelity, not size.
const jpegQuality = 92

// imageConverter re-encodes raster images into a different raster or
// vector container. The source is decoded to pixels, drawn over a white
// background at its natural dimensions (no implicit scaling), and encoded
// for the target format. The white fill avoids transparency artifacts in
// targets without an alpha channel.
type imageConverter struct {
	logger *slog.Logger
}

// NewImageConverter creates the image category converter.
func NewImageConverter(logger *slog.Logger) services.Converter {
	return &imageConverter{logger: logger}
}

func (c *imageConverter) Name() string {
	return "image"
}

func (c *imageConverter) Convert(ctx context.Context, req *models.ConversionRequest, target *models.FormatDescriptor) (*services.ConverterResult, error) {
	src, err := decodeImage(req.SourceBytes)
	if err != nil {
		return nil, err
	}

	canvas := flattenOnWhite(src)

	result := &services.ConverterResult{
		File: models.OutputFile{MIMEType: target.MIMEType},
	}

	var buf bytes.Buffer
	switch target.ID {
	case "png":
		err = png.Encode(&buf, canvas)
	case "jpg":
		err = jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality})
	case "webp":
		// nativewebp encodes lossless VP8L; the lossy quality knob does
		// not apply to this encoder.
		err = nativewebp.Encode(&buf, canvas, nil)
	case "gif":
		err = gif.Encode(&buf, canvas, nil)
	case "bmp":
		err = bmp.Encode(&buf, canvas)
	case "tiff":
		err = tiff.Encode(&buf, canvas, nil)
	case "svg":
		err = encodeSVGWrapper(&buf, canvas)
		result.Advisories = append(result.Advisories,
			"SVG output embeds the rasterized image; the content was wrapped, not vectorized")
	default:
		return nil, &domain.UnsupportedFormatError{Format: target.ID}
	}
	if err != nil {
		return nil, &domain.EncodeError{Format: target.ID, Cause: err}
	}

	c.logger.Debug("image converted",
		"target", target.ID,
		"width", canvas.Bounds().Dx(),
		"height", canvas.Bounds().Dy(),
		"output_bytes", buf.Len(),
	)

	result.File.Bytes = buf.Bytes()
	return result, nil
}

// decodeImage decodes source bytes into pixels using every registered
// decoder (png, jpeg, gif, webp, bmp, tiff).
func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &domain.SourceReadError{}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.DecodeError{Cause: err}
	}
	return img, nil
}

// flattenOnWhite draws the image over an opaque white canvas sized exactly
// to the source's natural dimensions.
func flattenOnWhite(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), src, bounds.Min, draw.Over)
	return canvas
}

// encodeSVGWrapper writes an SVG document that embeds the raster as a
// base64 data-URI <image> element at natural dimensions. This is a
// wrapping operation, not raster-to-vector tracing.
func encodeSVGWrapper(buf *bytes.Buffer, img image.Image) error {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return err
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	encoded := base64.StdEncoding.EncodeToString(pngBuf.Bytes())

	_, err := fmt.Fprintf(buf,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<image width="%d" height="%d" href="data:image/png;base64,%s"/>`+
			`</svg>`,
		w, h, w, h, w, h, encoded)
	return err
}
