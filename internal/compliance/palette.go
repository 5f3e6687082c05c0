package compliance

import (
	"image"
	"math"
	"math/rand"
	"sort"

	"github.com/brandgate/creative-automation/pkg/errors"
)

// PaletteEntry is one dominant color of an image and the fraction of sampled
// pixels assigned to it. Entries for one image sum to 1.
type PaletteEntry struct {
	Color  Color   `json:"color"`
	Weight float64 `json:"weight"`
}

// PaletteExtractor reduces an image to its K dominant colors with seeded
// k-means, so repeated runs on the same image produce the same palette.
type PaletteExtractor struct {
	K             int
	Seed          int64
	MaxSamples    int
	MaxIterations int
}

// Palette extraction defaults. Seed is fixed so compliance decisions are
// reproducible across runs.
const (
	defaultK             = 5
	defaultPaletteSeed   = 42
	defaultMaxSamples    = 4096
	defaultMaxIterations = 30
	convergenceEpsilon   = 0.5
)

// NewPaletteExtractor returns an extractor with the default tuning.
func NewPaletteExtractor() *PaletteExtractor {
	return &PaletteExtractor{
		K:             defaultK,
		Seed:          defaultPaletteSeed,
		MaxSamples:    defaultMaxSamples,
		MaxIterations: defaultMaxIterations,
	}
}

// Extract clusters the image's pixels into k dominant colors and returns the
// palette ordered by descending weight. k <= 0 falls back to the extractor's
// configured K. Images with fewer distinct colors than k collapse to the
// distinct colors present. A nil, empty, or fully transparent image returns
// errors.ErrInvalidImage.
func (p *PaletteExtractor) Extract(img image.Image, k int) ([]PaletteEntry, error) {
	if img == nil {
		return nil, errors.Wrap(errors.ErrInvalidImage, "palette extraction: nil image")
	}
	if k <= 0 {
		k = p.K
	}
	if k <= 0 {
		k = defaultK
	}

	samples := samplePixels(img, p.MaxSamples)
	if len(samples) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidImage, "palette extraction: no opaque pixels")
	}

	distinct := distinctColors(samples, k)
	if len(distinct) <= k {
		return exactPalette(samples), nil
	}

	return p.kmeans(samples, k), nil
}

// distinctColors collects distinct sample colors, stopping once more than
// limit are seen.
func distinctColors(samples []Color, limit int) []Color {
	seen := make(map[Color]struct{}, limit+1)
	out := make([]Color, 0, limit+1)
	for _, s := range samples {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) > limit {
			break
		}
	}
	return out
}

// exactPalette counts exact colors when the image has no more distinct colors
// than requested clusters.
func exactPalette(samples []Color) []PaletteEntry {
	counts := make(map[Color]int)
	for _, s := range samples {
		counts[s]++
	}
	total := float64(len(samples))
	entries := make([]PaletteEntry, 0, len(counts))
	for c, n := range counts {
		entries = append(entries, PaletteEntry{Color: c, Weight: float64(n) / total})
	}
	sortPalette(entries)
	return entries
}

type centroid struct {
	r, g, b float64
}

func (p *PaletteExtractor) kmeans(samples []Color, k int) []PaletteEntry {
	rng := rand.New(rand.NewSource(p.Seed))
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	centroids := initCentroids(samples, k, rng)
	assignments := make([]int, len(samples))

	for iter := 0; iter < maxIter; iter++ {
		// Assignment step.
		for i, s := range samples {
			assignments[i] = nearestCentroid(s, centroids)
		}

		// Update step.
		sums := make([]centroid, k)
		counts := make([]int, k)
		for i, s := range samples {
			c := assignments[i]
			sums[c].r += float64(s.R)
			sums[c].g += float64(s.G)
			sums[c].b += float64(s.B)
			counts[c]++
		}

		moved := 0.0
		for i := range centroids {
			if counts[i] == 0 {
				// Re-seed empty clusters from a random sample so k is held.
				s := samples[rng.Intn(len(samples))]
				centroids[i] = centroid{float64(s.R), float64(s.G), float64(s.B)}
				continue
			}
			next := centroid{
				r: sums[i].r / float64(counts[i]),
				g: sums[i].g / float64(counts[i]),
				b: sums[i].b / float64(counts[i]),
			}
			moved += math.Abs(next.r-centroids[i].r) +
				math.Abs(next.g-centroids[i].g) +
				math.Abs(next.b-centroids[i].b)
			centroids[i] = next
		}
		if moved < convergenceEpsilon {
			break
		}
	}

	// Final assignment for weights.
	counts := make([]int, k)
	for _, s := range samples {
		counts[nearestCentroid(s, centroids)]++
	}

	total := float64(len(samples))
	entries := make([]PaletteEntry, 0, k)
	for i, c := range centroids {
		if counts[i] == 0 {
			continue
		}
		entries = append(entries, PaletteEntry{
			Color: Color{
				R: clampChannel(int(math.Round(c.r))),
				G: clampChannel(int(math.Round(c.g))),
				B: clampChannel(int(math.Round(c.b))),
			},
			Weight: float64(counts[i]) / total,
		})
	}
	sortPalette(entries)
	return entries
}

// initCentroids seeds k-means with a k-means++ style spread: the first
// centroid is a random sample, each further one the sample farthest from its
// nearest chosen centroid, with ties broken by the seeded rng's scan order.
func initCentroids(samples []Color, k int, rng *rand.Rand) []centroid {
	centroids := make([]centroid, 0, k)
	first := samples[rng.Intn(len(samples))]
	centroids = append(centroids, centroid{float64(first.R), float64(first.G), float64(first.B)})

	for len(centroids) < k {
		bestIdx, bestDist := 0, -1.0
		for i, s := range samples {
			d := distToNearest(s, centroids)
			if d > bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		s := samples[bestIdx]
		centroids = append(centroids, centroid{float64(s.R), float64(s.G), float64(s.B)})
	}
	return centroids
}

func nearestCentroid(s Color, centroids []centroid) int {
	best, bestDist := 0, math.MaxFloat64
	for i, c := range centroids {
		d := sqDist(s, c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func distToNearest(s Color, centroids []centroid) float64 {
	best := math.MaxFloat64
	for _, c := range centroids {
		if d := sqDist(s, c); d < best {
			best = d
		}
	}
	return best
}

func sqDist(s Color, c centroid) float64 {
	dr := float64(s.R) - c.r
	dg := float64(s.G) - c.g
	db := float64(s.B) - c.b
	return dr*dr + dg*dg + db*db
}

// sortPalette orders by descending weight, tie-broken by hex value so output
// order is deterministic.
func sortPalette(entries []PaletteEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		return entries[i].Color.Hex() < entries[j].Color.Hex()
	})
}
