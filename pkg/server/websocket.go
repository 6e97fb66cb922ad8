package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mikeboe/research-agent/pkg/agent"
	"github.com/mikeboe/research-agent/pkg/validation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamEvent is a single message on the websocket research stream.
type StreamEvent struct {
	Type    string            `json:"type"`
	Stage   string            `json:"stage,omitempty"`
	Error   string            `json:"error,omitempty"`
	Payload *ResearchResponse `json:"payload,omitempty"`
}

// researchWS streams stage transitions while a research request runs. The
// client sends one ResearchRequest JSON message and receives a sequence of
// status events followed by a complete or error event, then the connection
// closes.
func (h *Handler) researchWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	var req ResearchRequest
	if err := ws.ReadJSON(&req); err != nil {
		h.Logger.Info("Websocket client disconnected before request", "error", err)
		return
	}

	if err := checkMaxResults(&req); err != nil {
		_ = ws.WriteJSON(StreamEvent{Type: "error", Error: err.Error()})
		return
	}
	if err := validate(&req); err != nil {
		msg := "invalid request"
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			msg = verr.Reason
		}
		_ = ws.WriteJSON(StreamEvent{Type: "error", Error: msg})
		return
	}

	h.Logger.Info("Websocket research started", "session_id", req.SessionID)

	st := h.Service.Run(c.Request.Context(), req, func(stage string, _ *agent.RunState) {
		if stage == agent.StageComplete || stage == agent.StageFailed {
			// Terminal stages get their own event below, with the payload.
			return
		}
		if err := ws.WriteJSON(StreamEvent{Type: "status", Stage: stage}); err != nil {
			h.Logger.Warn("Failed to write websocket status", "error", err)
		}
	})

	if st.Stage == agent.StageFailed {
		_ = ws.WriteJSON(StreamEvent{Type: "error", Error: "research failed, please try again"})
		return
	}

	resp := Response(st)
	if err := ws.WriteJSON(StreamEvent{Type: "complete", Payload: &resp}); err != nil {
		h.Logger.Warn("Failed to write websocket result", "error", err)
	}
}
