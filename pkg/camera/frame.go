package camera

import (
	"encoding/binary"
	"math"
	"time"
)

// PixelFormat describes how Frame.Data is encoded.
type PixelFormat int

const (
	// FormatBGR is packed 8-bit BGR, Width*Height*3 bytes (OpenCV native).
	FormatBGR PixelFormat = iota
	// FormatJPEG is a JPEG-encoded image.
	FormatJPEG
	// FormatSynthetic carries a scripted face distance instead of pixels.
	// Produced by Synthetic and understood by face.SyntheticLocator.
	FormatSynthetic
)

func (f PixelFormat) String() string {
	switch f {
	case FormatBGR:
		return "bgr"
	case FormatJPEG:
		return "jpeg"
	case FormatSynthetic:
		return "synthetic"
	}
	return "unknown"
}

// Frame is a single captured image.
// It is owned by whichever pipeline stage currently holds it.
type Frame struct {
	Seq       uint64      // Monotonic per source, starting at 1
	Timestamp time.Time   // Capture time (carries the monotonic clock reading)
	Width     int         // Pixels
	Height    int         // Pixels
	Format    PixelFormat // Encoding of Data
	Data      []byte
}

// EncodeSyntheticDistance packs a scripted distance into a frame payload.
// A nil payload means "no face in this frame".
func EncodeSyntheticDistance(distanceCm float64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(distanceCm))
	return buf
}

// DecodeSyntheticDistance is the inverse of EncodeSyntheticDistance.
func DecodeSyntheticDistance(data []byte) (float64, bool) {
	if len(data) != 8 {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), true
}
