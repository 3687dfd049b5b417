package analyzer

import "math"

// Canonical color names
const (
	ColorRed    = "red"
	ColorOrange = "orange"
	ColorYellow = "yellow"
	ColorGreen  = "green"
	ColorBlue   = "blue"
	ColorPurple = "purple"
	ColorPink   = "pink"
	ColorBrown  = "brown"
	ColorBlack  = "black"
	ColorWhite  = "white"
	ColorGray   = "gray"
)

type hueTarget struct {
	name string
	hue  float64
}

// hueTable is scanned in order and only a strictly smaller distance
// replaces the current match. Orange and brown share 0.08, so brown can
// never be returned.
var hueTable = []hueTarget{
	{ColorRed, 0.0},
	{ColorOrange, 0.08},
	{ColorYellow, 0.16},
	{ColorGreen, 0.33},
	{ColorBlue, 0.61},
	{ColorPurple, 0.78},
	{ColorPink, 0.92},
	{ColorBrown, 0.08},
}

// ClosestColorName maps an RGB triple (0-255 per channel) to one of the
// canonical color names.
func ClosestColorName(r, g, b int) string {
	h, s, v := rgbToHSV(float64(r)/255.0, float64(g)/255.0, float64(b)/255.0)

	switch {
	case v < 0.2:
		return ColorBlack
	case v > 0.9 && s < 0.15:
		return ColorWhite
	case s < 0.15 && v > 0.2:
		return ColorGray
	}

	minDiff := 1.0
	closest := ColorRed
	for _, target := range hueTable {
		diff := math.Abs(h - target.hue)
		diff = math.Min(diff, 1-diff)
		if diff < minDiff {
			minDiff = diff
			closest = target.name
		}
	}
	return closest
}

// rgbToHSV converts normalized RGB to HSV with every component in [0,1]
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	if max == min {
		return 0, 0, v
	}

	delta := max - min
	s = delta / max

	rc := (max - r) / delta
	gc := (max - g) / delta
	bc := (max - b) / delta
	switch max {
	case r:
		h = bc - gc
	case g:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}
	h = math.Mod(h/6, 1)
	if h < 0 {
		h++
	}
	return h, s, v
}
