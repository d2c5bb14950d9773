package alert

import (
	"context"
	"errors"
	"log/slog"

	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// Route binds a sink to the channel toggle that gates it.
type Route struct {
	Channel Channel
	Sink    Sink
}

// Multi fans a notification out to every route whose channel is enabled.
// A failing route does not stop the others.
type Multi struct {
	routes   []Route
	channels guidance.Channels
	logger   *slog.Logger
}

// NewMulti creates a fan-out sink.
func NewMulti(channels guidance.Channels, logger *slog.Logger, routes ...Route) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{routes: routes, channels: channels, logger: logger}
}

// Notify delivers n to each enabled route. Failures are returned as joined
// *ChannelError values; unsupported channels are logged and skipped.
func (m *Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, r := range m.routes {
		if !Enabled(m.channels, r.Channel) {
			continue
		}
		err := r.Sink.Notify(ctx, n)
		switch {
		case err == nil:
		case errors.Is(err, ErrChannelUnsupported):
			m.logger.Debug("alert channel unsupported", "channel", r.Channel)
		default:
			m.logger.Warn("alert channel failed", "channel", r.Channel, "error", err)
			errs = append(errs, &ChannelError{Channel: r.Channel, Err: err})
		}
	}
	return errors.Join(errs...)
}
