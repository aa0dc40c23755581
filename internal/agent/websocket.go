package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// HandleWebSocket serves GET /ws/chat. Each text frame carries a
// ChatRequest and is answered with a ChatResponse or an {"error": ...}
// frame; errors never close the connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()
	ws.SetReadLimit(h.maxBodySize)

	ctx := r.Context()
	key := rateKey(r)
	slog.Info("Chat WebSocket connected", "key", key)

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("Chat WebSocket closed by client", "key", key)
			} else {
				slog.Warn("Chat WebSocket read error", "error", err, "key", key)
			}
			return
		}

		resp, errMsg := h.handleFrame(ctx, r, key, data)
		var out any = resp
		if errMsg != "" {
			out = map[string]string{"error": errMsg}
		}
		if err := wsjson.Write(ctx, ws, out); err != nil {
			slog.Warn("Chat WebSocket write error", "error", err, "key", key)
			return
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, r *http.Request, key string, data []byte) (*ChatResponse, string) {
	if !h.rateLimiter.Allow(key) {
		return nil, msgRateLimited
	}

	if !h.svc.Configured() {
		return nil, msgNotConfigured
	}

	var req ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, msgInvalidBody
	}
	h.bind(r, &req, channelWebSocket)

	resp, err := h.svc.Chat(ctx, req)
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("Multi-agent chat failed", "error", err, "channel", channelWebSocket)
		}
		return nil, msg
	}
	return resp, ""
}
