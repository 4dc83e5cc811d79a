package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/shellboard/shellboard/internal/terminal"
)

// statusFrame is the control message sent on the stream when the session
// ends, after which the socket is closed normally.
type statusFrame struct {
	SessionID string    `json:"terminal_id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamTerminal relays a terminal's output over a WebSocket. Each
// OutputMessage is forwarded verbatim as one JSON text frame; the socket
// is write-only from the server side.
// GET /api/v1/terminals/{id}/stream
func StreamTerminal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[stream] failed to accept websocket: %v", err)
		return
	}
	defer conn.CloseNow()

	sub, err := TermMgr.Subscribe(id)
	if err != nil {
		switch {
		case errors.Is(err, terminal.ErrNotFound):
			conn.Close(4004, "Terminal not found")
		case errors.Is(err, terminal.ErrSubscriberLimit):
			conn.Close(4029, "Subscriber limit reached")
		default:
			conn.Close(4500, "Subscription failed")
		}
		return
	}
	defer TermMgr.Unsubscribe(id, sub)

	// CloseRead cancels the returned context when the client disconnects
	// or sends anything; the stream is one-way.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case msg := <-sub.Out():
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}

		case <-sub.Done():
			// Session ended: drain anything already queued, then say goodbye.
			for {
				select {
				case msg := <-sub.Out():
					data, _ := json.Marshal(msg)
					if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
						return
					}
					continue
				default:
				}
				break
			}
			frame := statusFrame{
				SessionID: id,
				Type:      "status",
				Status:    "stopped",
				Timestamp: time.Now().UTC(),
			}
			data, _ := json.Marshal(frame)
			conn.Write(ctx, websocket.MessageText, data)
			conn.Close(websocket.StatusNormalClosure, "Terminal stopped")
			return

		case <-ctx.Done():
			return
		}
	}
}
