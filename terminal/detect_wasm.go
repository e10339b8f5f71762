//go:build js

package terminal

// DetectColorMode reports true color; xterm.js renders 24-bit SGR natively
func DetectColorMode() ColorMode {
	return ColorModeTrueColor
}
