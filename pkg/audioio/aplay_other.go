//go:build !linux

package audioio

import (
	"fmt"
	"log/slog"
)

// newAplaySink returns an error on non-Linux platforms.
func newAplaySink(cfg Config, logger *slog.Logger) (Sink, error) {
	return nil, fmt.Errorf("aplay is only available on Linux")
}
