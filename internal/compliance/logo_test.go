package compliance

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandgate/creative-automation/pkg/errors"
)

func TestDetectCompositedLogo(t *testing.T) {
	logo := checkerLogo(32)
	canvas := solidImage(120, 120, Color{R: 255, G: 255, B: 255})
	paste(canvas, logo, 40, 50)

	match, err := NewLogoDetector().Detect(canvas, logo)
	require.NoError(t, err)

	assert.True(t, match.Found)
	assert.Greater(t, match.Confidence, 0.9)
	require.NotNil(t, match.Location)
	assert.InDelta(t, 40, match.Location.Min.X, 2)
	assert.InDelta(t, 50, match.Location.Min.Y, 2)
	assert.InDelta(t, 72, match.Location.Max.X, 2)
	assert.InDelta(t, 82, match.Location.Max.Y, 2)
}

func TestDetectUnrelatedImage(t *testing.T) {
	logo := checkerLogo(32)
	// Noise with a fixed seed; nothing resembling the checker layout.
	rng := rand.New(rand.NewSource(7))
	canvas := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			canvas.Set(x, y, solidImage(1, 1, Color{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
			}).At(0, 0))
		}
	}

	match, err := NewLogoDetector().Detect(canvas, logo)
	require.NoError(t, err)
	assert.False(t, match.Found)
}

func TestDetectSolidLogo(t *testing.T) {
	// A flat logo has no texture for correlation; the intensity fallback
	// still finds it on a contrasting canvas.
	logo := solidImage(24, 24, Color{R: 10, G: 10, B: 10})
	canvas := solidImage(96, 96, Color{R: 250, G: 250, B: 250})
	paste(canvas, logo, 30, 60)

	match, err := NewLogoDetector().Detect(canvas, logo)
	require.NoError(t, err)
	assert.True(t, match.Found)
	require.NotNil(t, match.Location)
	assert.InDelta(t, 30, match.Location.Min.X, 2)
	assert.InDelta(t, 60, match.Location.Min.Y, 2)
}

func TestDetectLogoLargerThanTarget(t *testing.T) {
	logo := checkerLogo(100)
	target := solidImage(30, 30, Color{R: 128, G: 128, B: 128})

	match, err := NewLogoDetector().Detect(target, logo)
	require.NoError(t, err)
	assert.False(t, match.Found)
	assert.Zero(t, match.Confidence)
	assert.Nil(t, match.Location)
}

func TestDetectScaledLogo(t *testing.T) {
	logo := checkerLogo(40)
	// Composite at half size; the 0.5x scale pass should pick it up.
	canvas := solidImage(120, 120, Color{R: 255, G: 255, B: 255})
	paste(canvas, resizeImage(logo, 20, 20), 10, 10)

	match, err := NewLogoDetector().Detect(canvas, logo)
	require.NoError(t, err)
	assert.True(t, match.Found)
}

func TestDetectBoundedOnLargeImages(t *testing.T) {
	logo := checkerLogo(64)
	canvas := solidImage(2000, 2000, Color{R: 255, G: 255, B: 255})
	paste(canvas, logo, 900, 900)

	// Must complete quickly despite the 4MP input; the downscale cap keeps
	// the match grid small. Location maps back to original coordinates.
	match, err := NewLogoDetector().Detect(canvas, logo)
	require.NoError(t, err)
	require.NotNil(t, match.Location)
	assert.InDelta(t, 900, match.Location.Min.X, 32)
	assert.InDelta(t, 900, match.Location.Min.Y, 32)
}

func TestDetectInvalidInputs(t *testing.T) {
	logo := checkerLogo(16)
	canvas := solidImage(64, 64, Color{R: 1, G: 2, B: 3})

	_, err := NewLogoDetector().Detect(nil, logo)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidImage))

	_, err = NewLogoDetector().Detect(canvas, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidImage))

	_, err = NewLogoDetector().Detect(image.NewRGBA(image.Rect(0, 0, 0, 0)), logo)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidImage))
}

func TestDetectThresholdConfigurable(t *testing.T) {
	logo := checkerLogo(32)
	canvas := solidImage(120, 120, Color{R: 255, G: 255, B: 255})
	paste(canvas, logo, 10, 10)

	strict := &LogoDetector{Threshold: 0.999999, Scales: []float64{1.0}, MaxDim: 256}
	match, err := strict.Detect(canvas, logo)
	require.NoError(t, err)
	// Confidence is reported regardless of whether the threshold was met.
	assert.Greater(t, match.Confidence, 0.9)

	lenient := &LogoDetector{Threshold: 0.5, Scales: []float64{1.0}, MaxDim: 256}
	match, err = lenient.Detect(canvas, logo)
	require.NoError(t, err)
	assert.True(t, match.Found)
}
