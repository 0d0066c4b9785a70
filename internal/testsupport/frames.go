package testsupport

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"formcheck/internal/frame"
	"formcheck/internal/pose"
)

// Mark records one drawing call made on a Frame.
type Mark struct {
	Kind      string
	From, To  image.Point
	Radius    int
	Color     color.RGBA
	Thickness int
}

// Frame is an in-memory frame.Frame that records every drawing call.
type Frame struct {
	index  int
	width  int
	height int
	marks  []Mark
	closed bool
	// EncodeErr, when set, is returned by EncodePNG.
	EncodeErr error
}

// NewFrame returns a blank frame of the given size.
func NewFrame(index, width, height int) *Frame {
	return &Frame{index: index, width: width, height: height}
}

func (f *Frame) Index() int { return f.index }

func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.width, f.height) }

func (f *Frame) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	f.marks = append(f.marks, Mark{Kind: "circle", From: center, Radius: radius, Color: c, Thickness: thickness})
}

func (f *Frame) Line(from, to image.Point, c color.RGBA, thickness int) {
	f.marks = append(f.marks, Mark{Kind: "line", From: from, To: to, Color: c, Thickness: thickness})
}

func (f *Frame) Clone() frame.Frame {
	clone := *f
	clone.marks = append([]Mark(nil), f.marks...)
	clone.closed = false
	return &clone
}

// EncodePNG renders a blank image with one pixel per mark so encoded output
// differs between frames.
func (f *Frame) EncodePNG() ([]byte, error) {
	if f.EncodeErr != nil {
		return nil, f.EncodeErr
	}
	img := image.NewRGBA(image.Rect(0, 0, max(f.width, 1), max(f.height, 1)))
	for i, m := range f.marks {
		img.Set(i%img.Bounds().Dx(), 0, m.Color)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Frame) Close() error {
	f.closed = true
	return nil
}

// Marks returns the drawing calls recorded so far.
func (f *Frame) Marks() []Mark { return append([]Mark(nil), f.marks...) }

// Closed reports whether Close was called.
func (f *Frame) Closed() bool { return f.closed }

// Source yields a fixed number of blank frames.
type Source struct {
	Frames   int
	Reported int
	Width    int
	Height   int
	// FailAt, when >= 0, makes Read return ReadErr at that index.
	FailAt  int
	ReadErr error

	next int
}

// NewSource returns a source of n frames that reports n as its frame count.
func NewSource(n int) *Source {
	return &Source{Frames: n, Reported: n, Width: 64, Height: 48, FailAt: -1}
}

func (s *Source) FrameCount() int { return s.Reported }

func (s *Source) Read(ctx context.Context) (frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.FailAt >= 0 && s.next == s.FailAt {
		if s.ReadErr == nil {
			return nil, errors.New("decode failure")
		}
		return nil, s.ReadErr
	}
	if s.next >= s.Frames {
		return nil, io.EOF
	}
	f := NewFrame(s.next, s.Width, s.Height)
	s.next++
	return f, nil
}

func (s *Source) Close() error { return nil }

// Tracker returns scripted detections keyed by frame index.
type Tracker struct {
	mu      sync.Mutex
	ByFrame map[int][]pose.Detection
	Err     error
	// OnTrack, when set, runs after each call with the 1-based call count.
	OnTrack func(call int)
	calls   []int
	closed  bool
}

// NewTracker builds a tracker from per-frame detections.
func NewTracker(byFrame map[int][]pose.Detection) *Tracker {
	return &Tracker{ByFrame: byFrame}
}

func (t *Tracker) Track(ctx context.Context, f frame.Frame) ([]pose.Detection, error) {
	t.mu.Lock()
	t.calls = append(t.calls, f.Index())
	call, hook := len(t.calls), t.OnTrack
	t.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	if t.Err != nil {
		return nil, t.Err
	}
	return t.ByFrame[f.Index()], nil
}

func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Calls returns the frame indices passed to Track, in order.
func (t *Tracker) Calls() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int(nil), t.calls...)
}

// Closed reports whether Close was called.
func (t *Tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Person builds a 17-keypoint detection whose hip, knee and ankle (12, 14, 16)
// form the requested knee angle in degrees, with the knee at (kx, ky).
func Person(trackID int, kx, ky, kneeAngle float64) pose.Detection {
	kps := make([]pose.Keypoint, 17)
	for i := range kps {
		kps[i] = pose.Keypoint{Point: pose.Point{X: kx, Y: ky - 100}, Confidence: 0.9}
	}
	kps[14] = pose.Keypoint{Point: pose.Point{X: kx, Y: ky}, Confidence: 0.9}
	// Thigh points straight up; shin rotates by the requested angle.
	kps[12] = pose.Keypoint{Point: pose.Point{X: kx, Y: ky - 100}, Confidence: 0.9}
	rad := kneeAngle * math.Pi / 180
	kps[16] = pose.Keypoint{Point: pose.Point{X: kx + 100*math.Sin(rad), Y: ky - 100*math.Cos(rad)}, Confidence: 0.9}
	return pose.Detection{
		TrackID:   trackID,
		Box:       pose.Box{X1: kx - 50, Y1: ky - 150, X2: kx + 50, Y2: ky + 150},
		Score:     0.9,
		Keypoints: kps,
	}
}
