package video

import (
	"context"
	"errors"
	"io"

	"gocv.io/x/gocv"

	"formcheck/internal/frame"
	"formcheck/internal/services"
)

// File decodes a video sequentially, reusing a single frame buffer.
type File struct {
	capture *gocv.VideoCapture
	buffer  gocv.Mat
	total   int
	next    int
}

// Open opens path for decoding.
func Open(path string) (*File, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "decode", "open", "", err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, services.Wrap(services.ErrSourceUnavailable, "decode", "open", "", errors.New("could not open video file"))
	}
	total := int(capture.Get(gocv.VideoCaptureFrameCount))
	if total < 0 {
		total = 0
	}
	return &File{capture: capture, buffer: gocv.NewMat(), total: total}, nil
}

// FrameCount is the container-reported frame total; it may be 0 when unknown.
func (s *File) FrameCount() int { return s.total }

// Read returns the next frame, or io.EOF when the stream is exhausted. The
// returned frame is overwritten by the following Read.
func (s *File) Read(ctx context.Context) (frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.capture.Read(&s.buffer); !ok || s.buffer.Empty() {
		return nil, io.EOF
	}
	f := borrowed(s.buffer, s.next)
	s.next++
	return f, nil
}

func (s *File) Close() error {
	bufErr := s.buffer.Close()
	if err := s.capture.Close(); err != nil {
		return err
	}
	return bufErr
}
