// internal/handlers/ws.go
package handlers

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleGameWS streams state snapshots over a websocket: one message on
// connect, then one after every applied mutation.
func (s *Server) handleGameWS(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessionFromRequest(w, r, false)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client sends nothing meaningful; the read loop exists to notice
	// the peer going away.
	go func() {
		for {
			if _, _, err := c.Read(ctx); err != nil {
				cancel()
				return
			}
		}
	}()

	states, unsubscribe := session.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case state, open := <-states:
			if !open {
				return
			}
			if err := wsjson.Write(ctx, c, state); err != nil {
				return
			}
		}
	}
}
