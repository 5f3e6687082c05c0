// Package compliance implements the quality and compliance gate: logo
// detection, brand color verification, and legal screening of campaign
// messages.
package compliance

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/brandgate/creative-automation/pkg/errors"
)

// Color is an RGB sample in [0,255] per channel.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ParseHex parses a #RRGGBB string into a Color.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return Color{}, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("hex color %q must be #RRGGBB", s))
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("hex color %q must be #RRGGBB", s))
	}
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// Hex renders the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Distance is the Euclidean distance between two colors in RGB space.
func Distance(a, b Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// ShadeSet derives 2*steps+1 variants of c ordered darkest to lightest: the
// darker shades, the original unchanged, then the lighter shades. Each step
// shifts every channel by step, clamped to [0,255].
func ShadeSet(c Color, steps int, step uint8) []Color {
	shades := make([]Color, 0, 2*steps+1)
	for i := -steps; i <= steps; i++ {
		shades = append(shades, shift(c, i*int(step)))
	}
	return shades
}

func shift(c Color, delta int) Color {
	return Color{
		R: clampChannel(int(c.R) + delta),
		G: clampChannel(int(c.G) + delta),
		B: clampChannel(int(c.B) + delta),
	}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// samplePixels flattens an image into opaque RGB samples, striding so at most
// maxSamples pixels are visited. Fully transparent pixels are skipped.
func samplePixels(img image.Image, maxSamples int) []Color {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total <= 0 {
		return nil
	}

	stride := 1
	if maxSamples > 0 && total > maxSamples {
		stride = int(math.Ceil(math.Sqrt(float64(total) / float64(maxSamples))))
	}

	samples := make([]Color, 0, total/(stride*stride)+1)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			samples = append(samples, Color{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
			})
		}
	}
	return samples
}

// grayAt returns the luma of the pixel at (x, y) in [0,255].
func grayAt(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}

// grayMatrix converts an image into a row-major luma matrix.
func grayMatrix(img image.Image) ([]float64, int, int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m[y*w+x] = grayAt(img, bounds.Min.X+x, bounds.Min.Y+y)
		}
	}
	return m, w, h
}
