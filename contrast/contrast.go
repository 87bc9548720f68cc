// Package contrast implements the WCAG 2.x relative-luminance and contrast
// formulas over 24-bit packed RGB colors.
package contrast

import "math"

// WCAG minimum contrast ratios.
const (
	AANormal  = 4.5
	AALarge   = 3.0
	AAANormal = 7.0
	AAALarge  = 4.5
)

// UnpackRGB splits a packed 0xRRGGBB value into channels.
func UnpackRGB(color uint32) (r, g, b uint8) {
	return uint8(color >> 16), uint8(color >> 8), uint8(color)
}

// RelativeLuminance computes WCAG relative luminance from 8-bit channels.
func RelativeLuminance(r, g, b uint8) float64 {
	return 0.2126*linearize(r) + 0.7152*linearize(g) + 0.0722*linearize(b)
}

// linearize converts one sRGB channel to linear light.
func linearize(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// Ratio computes the contrast ratio between two luminances. The result is
// in [1, 21] regardless of argument order.
func Ratio(l1, l2 float64) float64 {
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// RatioRGB is Ratio over packed colors.
func RatioRGB(fg, bg uint32) float64 {
	fr, fgreen, fb := UnpackRGB(fg)
	br, bgreen, bb := UnpackRGB(bg)
	return Ratio(RelativeLuminance(fr, fgreen, fb), RelativeLuminance(br, bgreen, bb))
}

// IsLargeText reports whether WCAG's large-text thresholds apply:
// at least 18pt, or at least 14pt bold.
func IsLargeText(size float64, bold bool) bool {
	return size >= 18 || (size >= 14 && bold)
}

// Threshold returns the minimum required ratio for the given level and
// text size. Level "AAA" selects the enhanced thresholds; anything else
// gets AA.
func Threshold(level string, large bool) float64 {
	if level == "AAA" {
		if large {
			return AAALarge
		}
		return AAANormal
	}
	if large {
		return AALarge
	}
	return AANormal
}
