package terminal

import "strings"

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

// String returns the config name of the mode
func (m ColorMode) String() string {
	if m == ColorModeTrueColor {
		return "truecolor"
	}
	return "256"
}

// ParseColorMode resolves a config name; "auto" and "" select DetectColorMode
func ParseColorMode(s string) (ColorMode, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return DetectColorMode(), true
	case "256":
		return ColorMode256, true
	case "truecolor", "24bit":
		return ColorModeTrueColor, true
	}
	return ColorMode256, false
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Color cube levels for the 6x6x6 palette (indices 16-231)
var cubeValues = [6]int{0, 95, 135, 175, 215, 255}

// nearestCube maps a channel value to the closest cube level index
func nearestCube(v uint8) int {
	best, bestDist := 0, 255
	for i, c := range cubeValues {
		if d := absInt(int(v) - c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// RGBTo256 converts RGB to the nearest xterm 256-color palette index,
// choosing between the color cube and the grayscale ramp (232-255)
func RGBTo256(c RGB) uint8 {
	ri, gi, bi := nearestCube(c.R), nearestCube(c.G), nearestCube(c.B)
	cubeDist := absInt(int(c.R)-cubeValues[ri]) + absInt(int(c.G)-cubeValues[gi]) + absInt(int(c.B)-cubeValues[bi])
	cube := uint8(16 + 36*ri + 6*gi + bi)

	gray := (int(c.R) + int(c.G) + int(c.B)) / 3
	if gray < 4 || gray > 243 {
		return cube
	}
	step := min((gray-8+5)/10, 23)
	step = max(step, 0)
	level := 8 + 10*step
	grayDist := absInt(int(c.R)-level) + absInt(int(c.G)-level) + absInt(int(c.B)-level)

	if grayDist < cubeDist {
		return uint8(232 + step)
	}
	return cube
}
