package frame

import (
	"image"
	"image/color"
)

// Frame is a decoded video frame that can be annotated and encoded.
//
// Frames returned by a Source are borrowed: they stay valid until the next
// Read and must not be closed by the caller. Clone produces an owned copy
// that the caller must Close.
type Frame interface {
	// Index is the absolute position of the frame in its source, starting at 0.
	Index() int
	Bounds() image.Rectangle
	Circle(center image.Point, radius int, c color.RGBA, thickness int)
	Line(from, to image.Point, c color.RGBA, thickness int)
	Clone() Frame
	EncodePNG() ([]byte, error)
	Close() error
}

// RGB converts a three component configuration value into a color.
func RGB(components []int) color.RGBA {
	if len(components) < 3 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(components[0]), G: uint8(components[1]), B: uint8(components[2]), A: 255}
}
