package onnx

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"formcheck/internal/config"
	"formcheck/internal/frame"
	"formcheck/internal/logging"
	"formcheck/internal/pose"
	"formcheck/internal/pose/yolo"
	"formcheck/internal/video"
)

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// Model is a loaded YOLO pose network shared by every scan.
type Model struct {
	session   *ort.DynamicAdvancedSession
	inputSize int
	anchors   int
	conf      float64
	nms       float64
	trackIoU  float64
	maxMissed int
	logger    *slog.Logger
}

// Load opens the ONNX model named in cfg.
func Load(cfg config.Pose, logger *slog.Logger) (*Model, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("pose model: %w", err)
	}
	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{"images"}, []string{"output0"}, nil)
	if err != nil {
		return nil, fmt.Errorf("create pose session: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "pose")
	logger.Info("pose model loaded",
		logging.String("model", cfg.ModelPath),
		logging.Int("input_size", cfg.InputSize),
	)
	return &Model{
		session:   session,
		inputSize: cfg.InputSize,
		anchors:   yolo.Anchors(cfg.InputSize),
		conf:      cfg.ConfidenceThreshold,
		nms:       cfg.NMSThreshold,
		trackIoU:  cfg.TrackIoUThreshold,
		maxMissed: cfg.TrackMaxMissed,
		logger:    logger,
	}, nil
}

// Factory returns a constructor for per-scan trackers backed by this model.
func (m *Model) Factory() pose.TrackerFactory {
	return func() (pose.Tracker, error) {
		return &Tracker{model: m, identity: yolo.NewIdentity(m.trackIoU, m.maxMissed)}, nil
	}
}

// Close destroys the session. The runtime environment stays initialized for
// the life of the process.
func (m *Model) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}

// Detect runs the network on mat and returns suppressed detections in mat's
// pixel space, without track identities.
func (m *Model) Detect(mat gocv.Mat) ([]pose.Detection, error) {
	if mat.Empty() {
		return nil, errors.New("detect: empty frame")
	}
	size := image.Pt(m.inputSize, m.inputSize)
	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	pixels, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read input blob: %w", err)
	}
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(m.inputSize), int64(m.inputSize)), append([]float32(nil), pixels...))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, yolo.Channels, int64(m.anchors)))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("pose inference: %w", err)
	}

	scale := yolo.Scale{
		X: float64(mat.Cols()) / float64(m.inputSize),
		Y: float64(mat.Rows()) / float64(m.inputSize),
	}
	dets, err := yolo.Decode(output.GetData(), m.anchors, m.conf, scale)
	if err != nil {
		return nil, err
	}
	return yolo.Suppress(dets, m.nms), nil
}

// Tracker runs the shared model and keeps identities for one scan.
type Tracker struct {
	model    *Model
	identity *yolo.Identity
}

func (t *Tracker) Track(ctx context.Context, f frame.Frame) ([]pose.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mf, ok := f.(*video.MatFrame)
	if !ok {
		return nil, fmt.Errorf("onnx tracker needs a decoded video frame, got %T", f)
	}
	dets, err := t.model.Detect(mf.Mat())
	if err != nil {
		return nil, err
	}
	t.identity.Assign(dets)
	return dets, nil
}

func (t *Tracker) Close() error { return nil }
