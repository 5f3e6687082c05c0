package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandgate/creative-automation/pkg/errors"
)

var (
	brandPrimary   = Color{R: 255, G: 136, B: 0}
	brandSecondary = Color{R: 0, G: 68, B: 170}
)

func TestValidateBothColorsPresent(t *testing.T) {
	img := splitImage(64, 64, brandPrimary, brandSecondary)

	report, err := NewColorValidator().Validate(img, brandPrimary, brandSecondary)
	require.NoError(t, err)

	assert.True(t, report.Pass)
	assert.True(t, report.PrimaryPresent)
	assert.True(t, report.SecondaryPresent)
	assert.NotEmpty(t, report.Matched)
	// The exact brand colors are among the matched shades.
	assert.Contains(t, report.Matched, brandPrimary)
	assert.Contains(t, report.Matched, brandSecondary)
}

func TestValidateNeitherColorPresent(t *testing.T) {
	// Greens, far outside tolerance of both brand colors and their shades.
	img := splitImage(64, 64, Color{R: 10, G: 200, B: 40}, Color{R: 60, G: 255, B: 120})

	report, err := NewColorValidator().Validate(img, brandPrimary, brandSecondary)
	require.NoError(t, err)

	assert.False(t, report.Pass)
	assert.False(t, report.PrimaryPresent)
	assert.False(t, report.SecondaryPresent)
	assert.Empty(t, report.Matched)
}

func TestValidatePartialPresenceFails(t *testing.T) {
	// Primary everywhere, secondary nowhere: partial brand identity is a
	// failure, not a partial pass.
	img := solidImage(64, 64, brandPrimary)

	report, err := NewColorValidator().Validate(img, brandPrimary, brandSecondary)
	require.NoError(t, err)

	assert.False(t, report.Pass)
	assert.True(t, report.PrimaryPresent)
	assert.False(t, report.SecondaryPresent)
	assert.NotEmpty(t, report.Matched)
}

func TestValidateShadeTolerance(t *testing.T) {
	// A noticeably darker variant of the primary still counts via shades.
	darker := Color{R: 210, G: 91, B: 0}
	img := splitImage(64, 64, darker, brandSecondary)

	report, err := NewColorValidator().Validate(img, brandPrimary, brandSecondary)
	require.NoError(t, err)
	assert.True(t, report.Pass)
	assert.True(t, report.PrimaryPresent)
}

func TestValidateNoiseClusterIgnored(t *testing.T) {
	// One secondary-colored pixel in a 64x64 image sits below the weight
	// floor and must not count as presence.
	img := solidImage(64, 64, brandPrimary)
	img.Set(0, 0, solidImage(1, 1, brandSecondary).At(0, 0))

	report, err := NewColorValidator().Validate(img, brandPrimary, brandSecondary)
	require.NoError(t, err)
	assert.False(t, report.SecondaryPresent)
	assert.False(t, report.Pass)
}

func TestValidateInvalidImage(t *testing.T) {
	_, err := NewColorValidator().Validate(transparentImage(8, 8), brandPrimary, brandSecondary)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidImage))
}
