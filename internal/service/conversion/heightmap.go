package conversion

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"

	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/domain/services"
)

const (
	// heightmapMaxDimension bounds the rendering surface. Inputs above
	// this on either side are downscaled first; typical inputs pass
	// through at natural size, which callers rely on.
	heightmapMaxDimension = 2048

	heightmapLabel = "HEIGHT MAP PREVIEW"

	// gradientAlpha is the opacity of the depth-suggesting overlay.
	gradientAlpha = 56
)

// Gradient stops for the diagonal overlay, dark blue to light blue.
var (
	gradientFrom = color.NRGBA{R: 30, G: 64, B: 175}
	gradientTo   = color.NRGBA{R: 96, G: 165, B: 250}
)

// heightmapConverter derives a grayscale height-map visualization from an
// image. This is the 2D stand-in path: per-pixel luminance replaces the
// color channels, a diagonal gradient suggests depth, and a centered label
// identifies the output as a preview. No 3D geometry is exported.
type heightmapConverter struct {
	logger *slog.Logger
}

// NewHeightmapConverter creates the image-to-3D height-map converter.
func NewHeightmapConverter(logger *slog.Logger) services.Converter {
	return &heightmapConverter{logger: logger}
}

func (c *heightmapConverter) Name() string {
	return "heightmap"
}

func (c *heightmapConverter) Convert(ctx context.Context, req *models.ConversionRequest, target *models.FormatDescriptor) (*services.ConverterResult, error) {
	src, err := decodeImage(req.SourceBytes)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &domain.RenderError{}
	}
	if bounds.Dx() > heightmapMaxDimension || bounds.Dy() > heightmapMaxDimension {
		src = resize.Thumbnail(heightmapMaxDimension, heightmapMaxDimension, src, resize.Lanczos3)
	}

	surface := grayscaleHeightmap(src)
	compositeGradient(surface)
	drawCenteredLabel(surface, heightmapLabel)

	var buf bytes.Buffer
	if err := png.Encode(&buf, surface); err != nil {
		return nil, &domain.RenderError{Cause: err}
	}

	c.logger.Debug("height map rendered",
		"width", surface.Bounds().Dx(),
		"height", surface.Bounds().Dy(),
		"output_bytes", buf.Len(),
	)

	return &services.ConverterResult{
		File: models.OutputFile{
			Bytes:    buf.Bytes(),
			MIMEType: target.MIMEType,
		},
		Advisories: []string{"output is a 2D height-map preview rendered from luminance, not a 3D mesh asset"},
		Is3D:       true,
	}, nil
}

// grayscaleHeightmap replaces each pixel's color channels with its
// luminance (0.299 R + 0.587 G + 0.114 B), preserving alpha. Luminance
// stands in for elevation in the height-map reading of the image.
func grayscaleHeightmap(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			lum := uint8(0.299*float64(px.R) + 0.587*float64(px.G) + 0.114*float64(px.B))
			out.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.NRGBA{R: lum, G: lum, B: lum, A: px.A})
		}
	}
	return out
}

// compositeGradient lays a two-stop diagonal blue gradient over the
// surface at low opacity to suggest depth.
func compositeGradient(surface *image.NRGBA) {
	bounds := surface.Bounds()
	span := float64(bounds.Dx() + bounds.Dy())
	if span == 0 {
		return
	}
	overlay := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			t := float64(x+y) / span
			overlay.SetNRGBA(x, y, color.NRGBA{
				R: lerp(gradientFrom.R, gradientTo.R, t),
				G: lerp(gradientFrom.G, gradientTo.G, t),
				B: lerp(gradientFrom.B, gradientTo.B, t),
				A: gradientAlpha,
			})
		}
	}
	draw.Draw(surface, bounds, overlay, bounds.Min, draw.Over)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// drawCenteredLabel renders the label centered on the surface, with a
// one-pixel shadow so it stays readable on light and dark maps alike.
func drawCenteredLabel(surface *image.NRGBA, label string) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()
	x := (surface.Bounds().Dx() - width) / 2
	y := (surface.Bounds().Dy() + face.Metrics().Ascent.Ceil()) / 2

	shadow := &font.Drawer{
		Dst:  surface,
		Src:  image.NewUniform(color.NRGBA{A: 200}),
		Face: face,
		Dot:  fixed.P(x+1, y+1),
	}
	shadow.DrawString(label)

	drawer := &font.Drawer{
		Dst:  surface,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(label)
}
