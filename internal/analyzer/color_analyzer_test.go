package analyzer

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func createSolidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// createQuadrantImage paints four equal quadrants: red, green, blue, white
func createQuadrantImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			switch {
			case x < half && y < half:
				img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
			case y < half:
				img.SetRGBA(x, y, color.RGBA{0, 255, 0, 255})
			case x < half:
				img.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
			default:
				img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}

func seededColorAnalyzer(seed int64) *ColorAnalyzer {
	opts := DefaultColorOptions()
	opts.Seed = seed
	return NewColorAnalyzer(opts)
}

func sumDistribution(d map[string]float64) float64 {
	var sum float64
	for _, v := range d {
		sum += v
	}
	return sum
}

func TestColorAnalyzer_SolidImages(t *testing.T) {
	tests := []struct {
		name     string
		fill     color.RGBA
		expected string
	}{
		{"pure white", color.RGBA{255, 255, 255, 255}, ColorWhite},
		{"pure black", color.RGBA{0, 0, 0, 255}, ColorBlack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := seededColorAnalyzer(1).Analyze(createSolidImage(512, 512, tt.fill))

			if result.Status != StatusOK {
				t.Fatalf("Expected ok status, got %s (%v)", result.Status, result.Err)
			}
			if result.Distribution[tt.expected] <= 95 {
				t.Errorf("Expected %s to cover more than 95%%, got %v", tt.expected, result.Distribution)
			}
			if len(result.DominantColors) == 0 || result.DominantColors[0].ColorName != tt.expected {
				t.Errorf("Expected %s to be the top dominant color, got %+v", tt.expected, result.DominantColors)
			}
			if result.Confidence != ColorConfidence {
				t.Errorf("Expected confidence %v, got %v", ColorConfidence, result.Confidence)
			}
		})
	}
}

func TestColorAnalyzer_DistributionProperties(t *testing.T) {
	result := seededColorAnalyzer(5).Analyze(createQuadrantImage(200))

	if sum := sumDistribution(result.Distribution); math.Abs(sum-100) > 0.5 {
		t.Errorf("Expected distribution to sum to 100 +/- 0.5, got %f (%v)", sum, result.Distribution)
	}
	for _, name := range []string{ColorRed, ColorGreen, ColorBlue, ColorWhite} {
		if math.Abs(result.Distribution[name]-25) > 0.01 {
			t.Errorf("Expected %s at 25%%, got %v", name, result.Distribution[name])
		}
	}

	if len(result.DominantColors) > 3 {
		t.Fatalf("Expected at most 3 dominant colors, got %d", len(result.DominantColors))
	}
	for i, dc := range result.DominantColors {
		pct, ok := result.Distribution[dc.ColorName]
		if !ok || pct != dc.Percentage {
			t.Errorf("Dominant color %+v missing from distribution %v", dc, result.Distribution)
		}
		if i > 0 && dc.Percentage > result.DominantColors[i-1].Percentage {
			t.Errorf("Dominant colors not in descending order: %+v", result.DominantColors)
		}
	}
}

func TestColorAnalyzer_HexAndRGB(t *testing.T) {
	result := seededColorAnalyzer(1).Analyze(createSolidImage(10, 10, color.RGBA{10, 128, 255, 255}))

	if len(result.DominantColors) != 1 {
		t.Fatalf("Expected a single color, got %+v", result.DominantColors)
	}
	dc := result.DominantColors[0]
	if dc.RGB != [3]int{10, 128, 255} {
		t.Errorf("Expected rgb [10 128 255], got %v", dc.RGB)
	}
	if dc.Hex != "#0a80ff" {
		t.Errorf("Expected hex #0a80ff, got %s", dc.Hex)
	}
	if dc.Percentage != 100 {
		t.Errorf("Expected 100%%, got %v", dc.Percentage)
	}
}

func TestColorAnalyzer_SameSeedIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}

	first := seededColorAnalyzer(42).Analyze(img)
	second := seededColorAnalyzer(42).Analyze(img)

	if !reflect.DeepEqual(first.Palette, second.Palette) {
		t.Errorf("Expected identical palettes\nfirst:  %+v\nsecond: %+v", first.Palette, second.Palette)
	}
	if !reflect.DeepEqual(first.Distribution, second.Distribution) {
		t.Errorf("Expected identical distributions\nfirst:  %v\nsecond: %v", first.Distribution, second.Distribution)
	}
}

func TestColorAnalyzer_DownscalesWideImages(t *testing.T) {
	// 900x30 becomes 300x10; a solid image still yields a single cluster
	result := seededColorAnalyzer(1).Analyze(createSolidImage(900, 30, color.RGBA{0, 200, 0, 255}))

	if len(result.Palette) != 1 || result.Palette[0].ColorName != ColorGreen {
		t.Errorf("Expected a single green cluster, got %+v", result.Palette)
	}
}

func TestColorAnalyzer_EmptyImageDegrades(t *testing.T) {
	result := seededColorAnalyzer(1).Analyze(image.NewRGBA(image.Rect(0, 0, 0, 0)))

	if result.Status != StatusDegraded {
		t.Errorf("Expected degraded status, got %s", result.Status)
	}
	if result.Confidence != 0 || len(result.DominantColors) != 0 || len(result.Distribution) != 0 {
		t.Errorf("Expected empty default result, got %+v", result)
	}
}

// Two clusters that resolve to the same name do not aggregate: the one
// processed later replaces the earlier entry in the distribution map,
// while the palette keeps both.
func TestSummarizeClusters_SameNameOverwrites(t *testing.T) {
	clusters := []ColorCluster{
		{Centroid: [3]float64{250, 5, 5}, Count: 60},
		{Centroid: [3]float64{0, 0, 250}, Count: 15},
		{Centroid: [3]float64{200, 10, 10}, Count: 25},
	}

	result := summarizeClusters(clusters, 100, 3)

	if got := result.Distribution[ColorRed]; got != 25 {
		t.Errorf("Expected the later red cluster (25%%) to win, got %v", got)
	}
	if sum := sumDistribution(result.Distribution); sum != 40 {
		t.Errorf("Expected distribution to sum to 40 after overwrite, got %v", sum)
	}
	if len(result.Palette) != 3 {
		t.Fatalf("Expected all three clusters in the palette, got %d", len(result.Palette))
	}
	if result.Palette[0].Percentage != 60 || result.Palette[0].ColorName != ColorRed {
		t.Errorf("Expected the 60%% red cluster first, got %+v", result.Palette[0])
	}
}

func TestSummarizeClusters_RoundsToTwoDecimals(t *testing.T) {
	clusters := []ColorCluster{
		{Centroid: [3]float64{255, 255, 255}, Count: 1},
		{Centroid: [3]float64{0, 0, 0}, Count: 2},
	}

	result := summarizeClusters(clusters, 3, 3)

	if result.Distribution[ColorWhite] != 33.33 {
		t.Errorf("Expected 33.33, got %v", result.Distribution[ColorWhite])
	}
	if result.Distribution[ColorBlack] != 66.67 {
		t.Errorf("Expected 66.67, got %v", result.Distribution[ColorBlack])
	}
	if result.DominantColors[0].ColorName != ColorBlack {
		t.Errorf("Expected black first, got %+v", result.DominantColors)
	}
}

func TestSummarizeClusters_TopN(t *testing.T) {
	clusters := []ColorCluster{
		{Centroid: [3]float64{255, 0, 0}, Count: 10},
		{Centroid: [3]float64{0, 255, 0}, Count: 20},
		{Centroid: [3]float64{0, 0, 255}, Count: 30},
		{Centroid: [3]float64{255, 255, 255}, Count: 15},
		{Centroid: [3]float64{0, 0, 0}, Count: 25},
	}

	result := summarizeClusters(clusters, 100, 3)

	want := []string{ColorBlue, ColorBlack, ColorGreen}
	if len(result.DominantColors) != 3 {
		t.Fatalf("Expected 3 dominant colors, got %d", len(result.DominantColors))
	}
	for i, name := range want {
		if result.DominantColors[i].ColorName != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, result.DominantColors[i].ColorName)
		}
	}
	if len(result.Distribution) != 5 {
		t.Errorf("Expected all 5 clusters in the distribution, got %v", result.Distribution)
	}
}
