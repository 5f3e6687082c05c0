package compliance

import (
	"image"
)

// ColorValidator checks that both brand colors appear in an image's dominant
// palette, allowing lighter and darker shades within a distance tolerance.
type ColorValidator struct {
	Palette    *PaletteExtractor
	Tolerance  float64
	MinWeight  float64
	ShadeSteps int
	ShadeStep  uint8
}

// Color validation defaults, carried over from the production tuning: five
// shades either side in steps of 15, RGB distance 40, and a 0.1% weight floor
// to ignore noise-level clusters.
const (
	defaultTolerance  = 40.0
	defaultMinWeight  = 0.001
	defaultShadeSteps = 5
	defaultShadeStep  = 15
)

// NewColorValidator returns a validator with default tuning and palette
// extractor.
func NewColorValidator() *ColorValidator {
	return &ColorValidator{
		Palette:    NewPaletteExtractor(),
		Tolerance:  defaultTolerance,
		MinWeight:  defaultMinWeight,
		ShadeSteps: defaultShadeSteps,
		ShadeStep:  defaultShadeStep,
	}
}

// ColorReport is the outcome of brand color validation. Matched holds the
// specific shades found, for the audit trail.
type ColorReport struct {
	Pass             bool    `json:"pass"`
	PrimaryPresent   bool    `json:"primary_present"`
	SecondaryPresent bool    `json:"secondary_present"`
	Matched          []Color `json:"matched,omitempty"`
}

// Validate extracts the image palette and verifies both brand colors are
// present. Partial presence fails: brand identity requires both. Palette
// errors (invalid image) propagate unchanged.
func (v *ColorValidator) Validate(img image.Image, primary, secondary Color) (ColorReport, error) {
	palette, err := v.Palette.Extract(img, 0)
	if err != nil {
		return ColorReport{}, err
	}

	significant := palette[:0:0]
	for _, entry := range palette {
		if entry.Weight >= v.MinWeight {
			significant = append(significant, entry)
		}
	}

	report := ColorReport{}
	if matched := v.matchShades(primary, significant); len(matched) > 0 {
		report.PrimaryPresent = true
		report.Matched = append(report.Matched, matched...)
	}
	if matched := v.matchShades(secondary, significant); len(matched) > 0 {
		report.SecondaryPresent = true
		report.Matched = append(report.Matched, matched...)
	}
	report.Pass = report.PrimaryPresent && report.SecondaryPresent
	return report, nil
}

// matchShades returns the shades of the brand color that sit within Tolerance
// of any significant palette entry, darkest first.
func (v *ColorValidator) matchShades(brand Color, palette []PaletteEntry) []Color {
	var matched []Color
	for _, shade := range ShadeSet(brand, v.ShadeSteps, v.ShadeStep) {
		for _, entry := range palette {
			if Distance(shade, entry.Color) <= v.Tolerance {
				matched = append(matched, shade)
				break
			}
		}
	}
	return matched
}
