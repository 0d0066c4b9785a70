package video

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"formcheck/internal/frame"
)

// MatFrame is an OpenCV-backed frame. Colors passed to the drawing methods are
// RGB; gocv converts them to the BGR channel order of the underlying Mat.
type MatFrame struct {
	mat   gocv.Mat
	index int
	owned bool
}

// NewMatFrame wraps mat as an owned frame; Close releases the Mat.
func NewMatFrame(mat gocv.Mat, index int) *MatFrame {
	return &MatFrame{mat: mat, index: index, owned: true}
}

func borrowed(mat gocv.Mat, index int) *MatFrame {
	return &MatFrame{mat: mat, index: index}
}

// Mat exposes the underlying matrix for inference backends.
func (f *MatFrame) Mat() gocv.Mat { return f.mat }

func (f *MatFrame) Index() int { return f.index }

func (f *MatFrame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.mat.Cols(), f.mat.Rows())
}

func (f *MatFrame) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	gocv.Circle(&f.mat, center, radius, c, thickness)
}

func (f *MatFrame) Line(from, to image.Point, c color.RGBA, thickness int) {
	gocv.Line(&f.mat, from, to, c, thickness)
}

// Clone deep-copies the pixel data so later reads cannot overwrite it.
func (f *MatFrame) Clone() frame.Frame {
	return &MatFrame{mat: f.mat.Clone(), index: f.index, owned: true}
}

func (f *MatFrame) EncodePNG() ([]byte, error) {
	if f.mat.Empty() {
		return nil, errors.New("encode png: empty frame")
	}
	buf, err := gocv.IMEncode(gocv.PNGFileExt, f.mat)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()
	raw := buf.GetBytes()
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (f *MatFrame) Close() error {
	if !f.owned {
		return nil
	}
	f.owned = false
	return f.mat.Close()
}

