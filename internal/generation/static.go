package generation

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync/atomic"
)

// StaticService is an offline Service: it renders deterministic placeholder
// art instead of calling the generation API and passes messages through
// untranslated. It records call counts, which doubles as the instrumentation
// pipeline tests use to prove blocked campaigns never reach generation.
type StaticService struct {
	imageCalls     atomic.Int64
	translateCalls atomic.Int64

	// TranslateFunc optionally overrides the pass-through translation.
	TranslateFunc func(message, region, audience string) (string, error)
	// GenerateErr, when set, is returned by every image call.
	GenerateErr error
}

var _ Service = (*StaticService)(nil)

// GenerateProductImage renders a solid placeholder whose color is derived
// from the product name, encoded as PNG.
func (s *StaticService) GenerateProductImage(_ context.Context, productName, _, _ string) ([]byte, error) {
	s.imageCalls.Add(1)
	if s.GenerateErr != nil {
		return nil, s.GenerateErr
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(productName))
	sum := h.Sum32()

	img := image.NewRGBA(image.Rect(0, 0, 512, 512))
	fill := color.RGBA{
		R: uint8(sum >> 16),
		G: uint8(sum >> 8),
		B: uint8(sum),
		A: 255,
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// Translate returns the message prefixed with the region, or delegates to
// TranslateFunc when set.
func (s *StaticService) Translate(_ context.Context, message, region, audience string) (string, error) {
	s.translateCalls.Add(1)
	if s.TranslateFunc != nil {
		return s.TranslateFunc(message, region, audience)
	}
	return fmt.Sprintf("[%s] %s", region, message), nil
}

// ImageCalls reports how many image generations were requested.
func (s *StaticService) ImageCalls() int64 { return s.imageCalls.Load() }

// TranslateCalls reports how many translations were requested.
func (s *StaticService) TranslateCalls() int64 { return s.translateCalls.Load() }
