package compliance

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/brandgate/creative-automation/pkg/errors"
)

// LogoMatch reports the outcome of logo detection in one creative. It is
// computed fresh per creative and never cached.
type LogoMatch struct {
	Found      bool             `json:"found"`
	Confidence float64          `json:"confidence"`
	Location   *image.Rectangle `json:"location,omitempty"`
}

// LogoDetector locates a brand logo inside a creative via multi-scale
// template matching on grayscale normalized cross-correlation. The approach
// handles near-exact placements at the configured scales; it is sensitive to
// rotation and scales outside the tested range.
type LogoDetector struct {
	Threshold float64
	Scales    []float64
	MaxDim    int
}

// Logo detection defaults. MaxDim caps the matched resolution so detection
// cost is bounded regardless of creative size; maxMatchOps additionally
// strides window positions on large inputs.
const (
	defaultLogoThreshold = 0.7
	defaultMaxDim        = 256
	maxMatchOps          = 50_000_000
	flatVariance         = 1e-6
)

// defaultScales spans 0.5x to 1.5x of the reference logo size.
func defaultScales() []float64 {
	return []float64{0.5, 0.75, 1.0, 1.25, 1.5}
}

// NewLogoDetector returns a detector with the default tuning.
func NewLogoDetector() *LogoDetector {
	return &LogoDetector{
		Threshold: defaultLogoThreshold,
		Scales:    defaultScales(),
		MaxDim:    defaultMaxDim,
	}
}

// Detect slides the logo reference across the target at each configured scale
// and reports the best similarity. A logo larger than the target at every
// scale yields confidence 0 and Found=false; that is a normal outcome, not an
// error. Nil or empty inputs return errors.ErrInvalidImage.
func (d *LogoDetector) Detect(target, logo image.Image) (LogoMatch, error) {
	if target == nil || target.Bounds().Dx() < 1 || target.Bounds().Dy() < 1 {
		return LogoMatch{}, errors.Wrap(errors.ErrInvalidImage, "logo detection: invalid target image")
	}
	if logo == nil || logo.Bounds().Dx() < 1 || logo.Bounds().Dy() < 1 {
		return LogoMatch{}, errors.Wrap(errors.ErrInvalidImage, "logo detection: invalid logo reference")
	}

	scales := d.Scales
	if len(scales) == 0 {
		scales = defaultScales()
	}
	maxDim := d.MaxDim
	if maxDim <= 0 {
		maxDim = defaultMaxDim
	}

	// Downscale both images by the same factor when the target exceeds the
	// work cap, so relative logo scale is preserved.
	shrink := 1.0
	tw, th := target.Bounds().Dx(), target.Bounds().Dy()
	if longest := max(tw, th); longest > maxDim {
		shrink = float64(maxDim) / float64(longest)
		target = resizeImage(target, int(float64(tw)*shrink), int(float64(th)*shrink))
		logo = resizeImage(logo,
			max(1, int(float64(logo.Bounds().Dx())*shrink)),
			max(1, int(float64(logo.Bounds().Dy())*shrink)))
	}

	tgtGray, tgtW, tgtH := grayMatrix(target)

	best := LogoMatch{}
	for _, scale := range scales {
		lw := int(math.Round(float64(logo.Bounds().Dx()) * scale))
		lh := int(math.Round(float64(logo.Bounds().Dy()) * scale))
		if lw < 2 || lh < 2 || lw > tgtW || lh > tgtH {
			continue
		}

		lgGray, _, _ := grayMatrix(resizeImage(logo, lw, lh))
		score, x, y := matchTemplate(tgtGray, tgtW, tgtH, lgGray, lw, lh)
		if score > best.Confidence {
			loc := image.Rect(
				int(float64(x)/shrink),
				int(float64(y)/shrink),
				int(float64(x+lw)/shrink),
				int(float64(y+lh)/shrink),
			)
			best = LogoMatch{Confidence: score, Location: &loc}
		}
	}

	threshold := d.Threshold
	if threshold <= 0 {
		threshold = defaultLogoThreshold
	}
	best.Found = best.Confidence >= threshold
	if best.Confidence == 0 {
		best.Location = nil
	}
	return best, nil
}

// matchTemplate computes the best zero-mean normalized cross-correlation of
// the template over the image and returns the score clamped to [0,1] with its
// top-left position. Window positions are strided when the full scan would
// exceed the work cap.
func matchTemplate(img []float64, iw, ih int, tpl []float64, tw, th int) (score float64, bx, by int) {
	area := tw * th
	positionsX := iw - tw + 1
	positionsY := ih - th + 1

	stride := 1
	if work := positionsX * positionsY * area; work > maxMatchOps {
		stride = int(math.Ceil(math.Sqrt(float64(work) / float64(maxMatchOps))))
	}

	tplMean, tplVar := meanVariance(tpl)
	flatTemplate := tplVar < flatVariance

	best := -1.0
	for y := 0; y < positionsY; y += stride {
		for x := 0; x < positionsX; x += stride {
			var s float64
			if flatTemplate {
				s = flatSimilarity(img, iw, tpl, tw, th, x, y, tplMean)
			} else {
				s = nccAt(img, iw, tpl, tw, th, x, y, tplMean, tplVar)
			}
			if s > best {
				best = s
				bx, by = x, y
			}
		}
	}
	return math.Max(0, best), bx, by
}

// nccAt scores one window placement with zero-mean normalized
// cross-correlation, the equivalent of OpenCV's TM_CCOEFF_NORMED.
func nccAt(img []float64, iw int, tpl []float64, tw, th, ox, oy int, tplMean, tplVar float64) float64 {
	area := float64(tw * th)

	var winSum, winSqSum float64
	for y := 0; y < th; y++ {
		row := (oy+y)*iw + ox
		for x := 0; x < tw; x++ {
			v := img[row+x]
			winSum += v
			winSqSum += v * v
		}
	}
	winMean := winSum / area
	winVar := winSqSum/area - winMean*winMean
	if winVar < flatVariance {
		return 0
	}

	var cross float64
	for y := 0; y < th; y++ {
		row := (oy+y)*iw + ox
		tplRow := y * tw
		for x := 0; x < tw; x++ {
			cross += (img[row+x] - winMean) * (tpl[tplRow+x] - tplMean)
		}
	}
	return cross / (area * math.Sqrt(winVar*tplVar))
}

// flatSimilarity handles solid-color logos, where correlation is undefined:
// score is one minus the mean absolute intensity difference.
func flatSimilarity(img []float64, iw int, _ []float64, tw, th, ox, oy int, tplMean float64) float64 {
	var diff float64
	for y := 0; y < th; y++ {
		row := (oy+y)*iw + ox
		for x := 0; x < tw; x++ {
			diff += math.Abs(img[row+x] - tplMean)
		}
	}
	return 1 - diff/(float64(tw*th)*255)
}

func meanVariance(m []float64) (mean, variance float64) {
	n := float64(len(m))
	var sum, sqSum float64
	for _, v := range m {
		sum += v
		sqSum += v * v
	}
	mean = sum / n
	variance = sqSum/n - mean*mean
	return mean, variance
}

func resizeImage(img image.Image, w, h int) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
