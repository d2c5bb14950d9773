package face

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/debug"
	"gocv.io/x/gocv"
)

// Config holds detector configuration.
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Detector score threshold
	InputWidth       int     // Initial model input width
	InputHeight      int     // Initial model input height
}

// DefaultConfig returns production defaults for YuNet.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// YuNet locates faces with OpenCV's FaceDetectorYN.
type YuNet struct {
	detector gocv.FaceDetectorYN
	config   Config
	logger   *slog.Logger
	mu       sync.Mutex // Protects inference
}

// NewYuNet loads the YuNet model.
func NewYuNet(cfg Config, logger *slog.Logger) (*YuNet, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// ONNX models need no separate config file. The input size is reset per frame.
	const (
		nmsThreshold = 0.3
		topK         = 5000
	)
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		nmsThreshold,
		topK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNet{
		detector: detector,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Locate returns the best face in the frame, or nil when none is found.
func (y *YuNet) Locate(ctx context.Context, frame camera.Frame) (*Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := decodeFrame(frame)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	y.mu.Lock()
	defer y.mu.Unlock()

	y.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	y.detector.Detect(img, &faces)

	// YuNet output format (15 columns):
	// 0-3: x, y, w, h (bounding box in pixels)
	// 4-5: right eye, 6-7: left eye, 8-9: nose tip, 10-13: mouth corners
	// 14: face score
	candidates := make([]Observation, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		candidates = append(candidates, Observation{
			Box: Rect{
				X: float64(faces.GetFloatAt(r, 0)),
				Y: float64(faces.GetFloatAt(r, 1)),
				W: float64(faces.GetFloatAt(r, 2)),
				H: float64(faces.GetFloatAt(r, 3)),
			},
			RightEye:   Point{X: float64(faces.GetFloatAt(r, 4)), Y: float64(faces.GetFloatAt(r, 5))},
			LeftEye:    Point{X: float64(faces.GetFloatAt(r, 6)), Y: float64(faces.GetFloatAt(r, 7))},
			Confidence: float64(faces.GetFloatAt(r, 14)),
		})
	}

	if len(candidates) > 0 {
		debug.FrameLog(y.logger, "yunet faces", "seq", frame.Seq, "count", len(candidates))
	}

	best := SelectBest(candidates)
	if best == nil {
		return nil, nil
	}
	obs := *best
	return &obs, nil
}

// Close releases the detector resources.
func (y *YuNet) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.detector.Close()
	return nil
}

func decodeFrame(frame camera.Frame) (gocv.Mat, error) {
	switch frame.Format {
	case camera.FormatJPEG:
		img, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
		if err != nil {
			return img, fmt.Errorf("face: decode jpeg: %w", err)
		}
		if img.Empty() {
			img.Close()
			return img, ErrEmptyImage
		}
		return img, nil
	case camera.FormatBGR:
		if frame.Width <= 0 || frame.Height <= 0 || len(frame.Data) != frame.Width*frame.Height*3 {
			return gocv.NewMat(), ErrEmptyImage
		}
		img, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
		if err != nil {
			return img, fmt.Errorf("face: wrap frame: %w", err)
		}
		return img, nil
	}
	return gocv.NewMat(), fmt.Errorf("%w: %s", ErrUnsupportedFormat, frame.Format)
}
