package session

import (
	"encoding/json"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Client → server.
const (
	TypePointer         = "input.pointer"
	TypeWheel           = "input.wheel"
	TypeKey             = "input.key"
	TypeModeSet         = "mode.set"
	TypeNodeUpdate      = "node.update"
	TypeMemberUpdate    = "member.update"
	TypeUndo            = "history.undo"
	TypeRedo            = "history.redo"
	TypeFit             = "viewport.fit"
	TypeSurfaceResize   = "surface.resize"
	TypeModelLoad       = "model.load"
	TypeBackgroundSet   = "background.set"
	TypeAnalysisRequest = "analysis.request"
	TypeAnalysisResult  = "analysis.result"
	TypeAnalysisClear   = "analysis.clear"
	TypeDisplayFlags    = "display.flags"
	TypeConfirmResponse = "confirm.response"
)

// Server → client.
const (
	TypeWelcome        = "welcome"
	TypeState          = "session.state"
	TypeFrame          = "frame"
	TypeConfirmRequest = "confirm.request"
	TypeAnalyze        = "analyze.request"
	TypeError          = "error"
)

type PointerPayload struct {
	Phase string  `json:"phase"` // "down", "move", "up"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type WheelPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

type ModePayload struct {
	Mode           string `json:"mode"`
	ClearSelection bool   `json:"clearSelection,omitempty"`
}

// UpdatePayload carries raw properties-surface text for node.update and
// member.update.
type UpdatePayload struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

type SurfacePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type BackgroundPayload struct {
	ImageID string `json:"imageId"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type ConfirmRequestPayload struct {
	RequestID string           `json:"requestId"`
	Target    engine.Selection `json:"target"`
	Message   string           `json:"message"`
}

type ConfirmResponsePayload struct {
	RequestID string `json:"requestId"`
	Accepted  bool   `json:"accepted"`
}

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
}

type StatePayload struct {
	State engine.StateView `json:"state"`
	Model json.RawMessage  `json:"model"`
}

type FramePayload struct {
	Ops []engine.DrawOp `json:"ops"`
}

type AnalyzePayload struct {
	Request analysis.Request `json:"request"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"` // the message type that failed
}
