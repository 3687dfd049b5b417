package analyzer

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anime-shed/clothing-inspector-go/internal/imaging"
	"github.com/anime-shed/clothing-inspector-go/pkg/models"
)

// ColorCluster is a k-means centroid and the number of samples assigned to it
type ColorCluster struct {
	Centroid [3]float64
	Count    int
}

// ColorAnalysis is the output of the color composition step
type ColorAnalysis struct {
	Status Status
	// Palette holds every non-empty cluster sorted by descending share
	Palette        []models.DominantColor
	DominantColors []models.DominantColor
	// Distribution is keyed by color name. Clusters are written in cluster
	// order, so a later cluster with the same name replaces an earlier one.
	Distribution map[string]float64
	Confidence   float64
	Err          error
}

// DefaultColorAnalysis is returned when color analysis could not run
func DefaultColorAnalysis(err error) ColorAnalysis {
	return ColorAnalysis{
		Status:         StatusDegraded,
		Palette:        []models.DominantColor{},
		DominantColors: []models.DominantColor{},
		Distribution:   map[string]float64{},
		Confidence:     0.0,
		Err:            err,
	}
}

// ColorAnalyzer extracts the dominant color composition of an image
type ColorAnalyzer struct {
	opts ColorOptions
}

// NewColorAnalyzer creates a color analyzer with the given options
func NewColorAnalyzer(opts ColorOptions) *ColorAnalyzer {
	return &ColorAnalyzer{opts: opts}
}

// Analyze clusters the pixels of img and names the resulting palette
func (ca *ColorAnalyzer) Analyze(img image.Image) ColorAnalysis {
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return DefaultColorAnalysis(fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy()))
	}

	samples := flattenPixels(imaging.ScaleToWidth(img, ca.opts.MaxSampleWidth))

	seed := ca.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	res := runKMeans(samples, kmeansParams{
		K:             ca.opts.K,
		MaxIterations: ca.opts.MaxIterations,
		Epsilon:       ca.opts.Epsilon,
		Attempts:      ca.opts.Attempts,
	}, rand.New(rand.NewSource(seed)))

	clusters := make([]ColorCluster, 0, len(res.Centers))
	for i, c := range res.Centers {
		if res.Counts[i] == 0 {
			continue
		}
		clusters = append(clusters, ColorCluster{
			Centroid: [3]float64{c[0], c[1], c[2]},
			Count:    res.Counts[i],
		})
	}
	return summarizeClusters(clusters, len(samples), ca.opts.TopN)
}

// summarizeClusters names, scores and ranks clusters. total is the number
// of samples the clusters were built from.
func summarizeClusters(clusters []ColorCluster, total, topN int) ColorAnalysis {
	palette := make([]models.DominantColor, 0, len(clusters))
	distribution := make(map[string]float64, len(clusters))

	for _, cl := range clusters {
		rgb := [3]int{
			roundChannel(cl.Centroid[0]),
			roundChannel(cl.Centroid[1]),
			roundChannel(cl.Centroid[2]),
		}
		name := ClosestColorName(rgb[0], rgb[1], rgb[2])
		pct := roundPercentage(float64(cl.Count) / float64(total) * 100)

		palette = append(palette, models.DominantColor{
			ColorName:  name,
			RGB:        rgb,
			Hex:        fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]),
			Percentage: pct,
		})
		distribution[name] = pct
	}

	sort.SliceStable(palette, func(i, j int) bool {
		return palette[i].Percentage > palette[j].Percentage
	})

	n := topN
	if n > len(palette) || n < 0 {
		n = len(palette)
	}
	dominant := make([]models.DominantColor, n)
	copy(dominant, palette[:n])

	return ColorAnalysis{
		Status:         StatusOK,
		Palette:        palette,
		DominantColors: dominant,
		Distribution:   distribution,
		Confidence:     ColorConfidence,
	}
}

func flattenPixels(img *image.RGBA) [][]float64 {
	b := img.Bounds()
	samples := make([][]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+3]
			samples = append(samples, []float64{float64(p[0]), float64(p[1]), float64(p[2])})
		}
	}
	return samples
}

func roundChannel(v float64) int {
	return int(math.Max(0, math.Min(255, math.Round(v))))
}

func roundPercentage(p float64) float64 {
	return decimal.NewFromFloat(p).Round(2).InexactFloat64()
}
