package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// RemoteSink pushes notifications to a companion device over a websocket,
// e.g. a phone mounted on the dashboard that vibrates and shows the cue.
// It connects lazily and reconnects on the next notification after a failure.
type RemoteSink struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

const remoteWriteWait = 2 * time.Second

// NewRemoteSink creates a sink for the given ws:// or wss:// URL.
func NewRemoteSink(url string, logger *slog.Logger) *RemoteSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteSink{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 3 * time.Second,
		},
		logger: logger,
	}
}

// Notify sends n as JSON.
func (r *RemoteSink) Notify(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotConnected, err)
		}
		r.conn = conn
		r.logger.Info("remote alert sink connected", "url", r.url)
	}

	r.conn.SetWriteDeadline(time.Now().Add(remoteWriteWait))
	if err := r.conn.WriteJSON(n); err != nil {
		r.conn.Close()
		r.conn = nil
		return fmt.Errorf("remote write: %w", err)
	}
	return nil
}

// Close sends a close frame and drops the connection.
func (r *RemoteSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	r.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := r.conn.Close()
	r.conn = nil
	return err
}
