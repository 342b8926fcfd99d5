package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/user/termrec/internal/recorder"
)

const (
	streamPollInterval     = 20 * time.Millisecond
	streamIdlePollInterval = 500 * time.Millisecond
)

// pollDelay picks the next poll interval. A connection with no active
// session backs off so idle viewers do not spin at the live rate.
func pollDelay(sessionActive bool) time.Duration {
	if sessionActive {
		return streamPollInterval
	}
	return streamIdlePollInterval
}

// streamMessage is a client-to-server frame on the websocket stream.
type streamMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Cols uint16 `json:"cols,omitempty"`
	Rows uint16 `json:"rows,omitempty"`
}

// stream bridges the polling read contract onto a push connection:
// the server drains the output queue and pushes binary frames, so the
// client never has to poll. Input and resize arrive as JSON text
// frames. The underlying pump/queue contract is unchanged.
func (h *handler) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.streamReadLoop(ctx, cancel, conn)

	timer := time.NewTimer(streamPollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			active := true
			for {
				data, err := h.svc.ReadOutput(ctx)
				if errors.Is(err, recorder.ErrNoSession) {
					active = false
					break
				}
				if err != nil {
					slog.Warn("stream output read failed", "error", err)
					return
				}
				if data == nil {
					break
				}
				if err := conn.Write(ctx, websocket.MessageBinary, data); err != nil {
					return
				}
			}
			timer.Reset(pollDelay(active))
		}
	}
}

func (h *handler) streamReadLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()

	conn.SetReadLimit(32768)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				slog.Debug("stream client read ended", "error", err)
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.streamError(ctx, conn, "invalid message format")
			continue
		}

		switch msg.Type {
		case "input":
			if err := h.svc.SendInput(ctx, []byte(msg.Data)); err != nil {
				h.streamError(ctx, conn, err.Error())
			}
		case "resize":
			if err := h.svc.ResizePty(msg.Cols, msg.Rows); err != nil {
				h.streamError(ctx, conn, err.Error())
			}
		default:
			h.streamError(ctx, conn, "unknown message type")
		}
	}
}

func (h *handler) streamError(ctx context.Context, conn *websocket.Conn, message string) {
	payload, err := json.Marshal(errorBody{Error: message})
	if err != nil {
		return
	}
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
