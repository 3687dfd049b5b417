package analyzer

import (
	"math"
	"testing"
)

func TestClosestColorName(t *testing.T) {
	tests := []struct {
		name     string
		r, g, b  int
		expected string
	}{
		{"pure black", 0, 0, 0, ColorBlack},
		{"near black", 40, 30, 20, ColorBlack},
		{"pure white", 255, 255, 255, ColorWhite},
		{"off white", 240, 240, 235, ColorWhite},
		{"mid gray", 128, 128, 128, ColorGray},
		{"light gray below white value", 220, 220, 220, ColorGray},
		{"pure red", 255, 0, 0, ColorRed},
		{"orange", 255, 128, 0, ColorOrange},
		{"yellow", 255, 230, 0, ColorYellow},
		{"pure green", 0, 255, 0, ColorGreen},
		{"pure blue", 0, 0, 255, ColorBlue},
		{"navy", 20, 30, 120, ColorBlue},
		{"purple", 128, 0, 255, ColorPurple},
		{"pink", 255, 0, 170, ColorPink},
		{"magenta wraps toward red", 255, 0, 40, ColorRed},
		// value exactly 0.20 is neither black nor gray and falls through to hue 0
		{"dark gray on value boundary", 51, 51, 51, ColorRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClosestColorName(tt.r, tt.g, tt.b); got != tt.expected {
				t.Errorf("ClosestColorName(%d, %d, %d) = %s, expected %s", tt.r, tt.g, tt.b, got, tt.expected)
			}
		})
	}
}

// Orange and brown share a target hue and orange is listed first, so a
// brown garment is reported as orange. This pins the current behavior.
func TestClosestColorName_BrownIsUnreachable(t *testing.T) {
	browns := [][3]int{
		{139, 69, 19},  // saddle brown
		{160, 82, 45},  // sienna
		{101, 67, 33},  // dark brown
		{210, 105, 30}, // chocolate
	}
	for _, c := range browns {
		if got := ClosestColorName(c[0], c[1], c[2]); got != ColorOrange {
			t.Errorf("Expected brown-ish %v to map to orange, got %s", c, got)
		}
	}

	for r := 0; r < 256; r += 5 {
		for g := 0; g < 256; g += 5 {
			for b := 0; b < 256; b += 5 {
				if ClosestColorName(r, g, b) == ColorBrown {
					t.Fatalf("brown returned for (%d, %d, %d)", r, g, b)
				}
			}
		}
	}
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		h, s, v float64
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 1, 1, 1, 0, 0, 1},
		{"red", 1, 0, 0, 0, 1, 1},
		{"green", 0, 1, 0, 1.0 / 3.0, 1, 1},
		{"blue", 0, 0, 1, 2.0 / 3.0, 1, 1},
		{"half magenta", 0.5, 0, 0.5, 5.0 / 6.0, 1, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
			if math.Abs(h-tt.h) > 1e-9 || math.Abs(s-tt.s) > 1e-9 || math.Abs(v-tt.v) > 1e-9 {
				t.Errorf("rgbToHSV(%v, %v, %v) = (%v, %v, %v), expected (%v, %v, %v)",
					tt.r, tt.g, tt.b, h, s, v, tt.h, tt.s, tt.v)
			}
		})
	}
}
