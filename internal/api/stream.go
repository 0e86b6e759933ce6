package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 5 * time.Second

// streamHandler pushes a bandwidth snapshot to the websocket client every
// stream interval until the client goes away.
func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	if s.poller == nil {
		s.writeErr(w, r, errNoPoller)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends anything meaningful; reading detects close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Debug("stream client connected", "remote", r.RemoteAddr)
	defer s.logger.Debug("stream client disconnected", "remote", r.RemoteAddr)

	ticker := s.clock.Ticker(s.streamInterval)
	defer ticker.Stop()

	for {
		if err := s.pushSnapshot(ctx, conn); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteTimeout))
			return
		case <-ticker.C:
		}
	}
}

// pushSnapshot polls and writes one frame. Poll failures are reported to the
// client as error frames; only write failures end the stream.
func (s *Server) pushSnapshot(ctx context.Context, conn *websocket.Conn) error {
	msg := StreamMessage{Type: "bandwidth"}
	snap, err := s.poller.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg = StreamMessage{Type: "error", Error: err.Error()}
	} else {
		msg.Snapshot = snap
	}

	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}
