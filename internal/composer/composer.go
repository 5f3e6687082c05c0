// Package composer assembles final creatives: product art on an
// aspect-ratio canvas with the brand logo and campaign message.
package composer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/brandgate/creative-automation/pkg/errors"
)

// Ratio is one output aspect ratio.
type Ratio struct {
	Name   string
	Width  int
	Height int
}

// Ratios are the channel formats every campaign ships in: square feed,
// vertical story, horizontal banner.
var Ratios = []Ratio{
	{Name: "1:1", Width: 1080, Height: 1080},
	{Name: "9:16", Width: 1080, Height: 1920},
	{Name: "16:9", Width: 1920, Height: 1080},
}

// Creative is one composed output, kept both decoded (for the compliance
// gate) and PNG-encoded (for disk and upload).
type Creative struct {
	Ratio string
	Image *image.RGBA
	PNG   []byte
}

// Composer renders creatives. It is stateless and safe for concurrent use.
type Composer struct {
	log *zap.Logger
}

// New builds a composer.
func New(log *zap.Logger) *Composer {
	return &Composer{log: log}
}

// ComposeAll renders the creative in every configured ratio.
func (c *Composer) ComposeAll(asset, logo image.Image, message string) ([]*Creative, error) {
	out := make([]*Creative, 0, len(Ratios))
	for _, ratio := range Ratios {
		creative, err := c.Compose(asset, logo, message, ratio)
		if err != nil {
			return nil, err
		}
		out = append(out, creative)
	}
	return out, nil
}

// Compose renders one creative: the product asset scaled to fill the canvas,
// the logo bottom-right, and the message along the top.
func (c *Composer) Compose(asset, logo image.Image, message string, ratio Ratio) (*Creative, error) {
	if asset == nil || asset.Bounds().Empty() {
		return nil, errors.Wrap(errors.ErrInvalidImage, "compose: missing product asset")
	}
	if logo == nil || logo.Bounds().Empty() {
		return nil, errors.Wrap(errors.ErrInvalidImage, "compose: missing brand logo")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, ratio.Width, ratio.Height))

	// Product art covers the canvas, center-cropped.
	drawCover(canvas, asset)

	// Logo bottom-right, sized to a fifth of the short edge.
	short := ratio.Width
	if ratio.Height < short {
		short = ratio.Height
	}
	logoSize := short / 5
	margin := short / 20
	logoScaled := image.NewRGBA(image.Rect(0, 0, logoSize, logoSize))
	xdraw.CatmullRom.Scale(logoScaled, logoScaled.Bounds(), logo, logo.Bounds(), xdraw.Over, nil)
	logoPos := image.Pt(ratio.Width-logoSize-margin, ratio.Height-logoSize-margin)
	draw.Draw(canvas, logoScaled.Bounds().Add(logoPos), logoScaled, image.Point{}, draw.Over)

	drawMessage(canvas, message, margin)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encoding %s creative: %w", ratio.Name, err)
	}

	c.log.Debug("composed creative",
		zap.String("ratio", ratio.Name),
		zap.Int("bytes", buf.Len()))

	return &Creative{Ratio: ratio.Name, Image: canvas, PNG: buf.Bytes()}, nil
}

// drawCover scales src so it fully covers dst, cropping the overflow evenly.
func drawCover(dst *image.RGBA, src image.Image) {
	db, sb := dst.Bounds(), src.Bounds()
	scaleX := float64(db.Dx()) / float64(sb.Dx())
	scaleY := float64(db.Dy()) / float64(sb.Dy())
	scale := scaleX
	if scaleY > scale {
		scale = scaleY
	}

	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	offX := (db.Dx() - w) / 2
	offY := (db.Dy() - h) / 2

	target := image.Rect(offX, offY, offX+w, offY+h)
	xdraw.CatmullRom.Scale(dst, target, src, sb, xdraw.Src, nil)
}

// drawMessage renders the campaign message near the top edge with a shadow
// pass for contrast on busy art.
func drawMessage(dst *image.RGBA, message string, margin int) {
	if message == "" {
		return
	}

	face := basicfont.Face7x13
	width := font.MeasureString(face, message).Ceil()
	x := (dst.Bounds().Dx() - width) / 2
	if x < margin {
		x = margin
	}
	y := margin + face.Metrics().Ascent.Ceil()

	shadow := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{A: 255}),
		Face: face,
		Dot:  fixed.P(x+1, y+1),
	}
	shadow.DrawString(message)

	text := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	text.DrawString(message)
}
