package face

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/cleargaze/pkg/camera"
)

func TestNewYuNetInvalidPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = "/nonexistent/path/model.onnx"

	_, err := NewYuNet(cfg, nil)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("got %v, want ErrModelNotFound", err)
	}
}

func TestYuNetLocate_SolidFrame(t *testing.T) {
	modelPath := findModelPath()
	if modelPath == "" {
		t.Skip("YuNet model not found, skipping test")
	}

	cfg := DefaultConfig()
	cfg.ModelPath = modelPath
	loc, err := NewYuNet(cfg, nil)
	if err != nil {
		t.Fatalf("NewYuNet failed: %v", err)
	}
	defer loc.Close()

	frame := solidBGRFrame(320, 240, color.RGBA{0, 0, 255, 255})
	obs, err := loc.Locate(context.Background(), frame)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if obs != nil {
		t.Errorf("expected no face in solid frame, got %+v", obs)
	}
}

func TestYuNetLocate_BadFrames(t *testing.T) {
	modelPath := findModelPath()
	if modelPath == "" {
		t.Skip("YuNet model not found, skipping test")
	}

	cfg := DefaultConfig()
	cfg.ModelPath = modelPath
	loc, err := NewYuNet(cfg, nil)
	if err != nil {
		t.Fatalf("NewYuNet failed: %v", err)
	}
	defer loc.Close()

	if _, err := loc.Locate(context.Background(), camera.Frame{Format: camera.FormatBGR, Width: 10, Height: 10}); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("short BGR buffer: got %v, want ErrEmptyImage", err)
	}
	if _, err := loc.Locate(context.Background(), camera.Frame{Format: camera.FormatSynthetic}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("synthetic frame: got %v, want ErrUnsupportedFormat", err)
	}
}

// Helper functions

func findModelPath() string {
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != "/"; dir = filepath.Dir(dir) {
			modelPath := filepath.Join(dir, "models", "face_detection_yunet.onnx")
			if _, err := os.Stat(modelPath); err == nil {
				return modelPath
			}
		}
	}
	return ""
}

func solidBGRFrame(width, height int, c color.RGBA) camera.Frame {
	data := make([]byte, 0, width*height*3)
	for i := 0; i < width*height; i++ {
		data = append(data, c.B, c.G, c.R)
	}
	return camera.Frame{Width: width, Height: height, Format: camera.FormatBGR, Data: data}
}
