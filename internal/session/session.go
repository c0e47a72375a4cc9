package session

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/engine"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// Options seed a new session.
type Options struct {
	Initial          *structure.Model // nil starts on the sample truss
	Width            float64
	Height           float64
	DeformationScale float64
}

// Session is one server-side editor. It maps protocol messages onto the
// engine and answers with state and frame messages. It is driven by a single
// goroutine, the owning client's read loop.
type Session struct {
	ID string

	engine  *engine.Engine
	send    func(*Message)
	pending map[string]engine.Selection // confirm request id -> delete target
	logger  *slog.Logger
}

// New creates a session that writes its outgoing messages to send.
func New(id string, send func(*Message), opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		ID:      id,
		engine:  engine.NewEngine(),
		send:    send,
		pending: make(map[string]engine.Selection),
		logger:  logger.With("session", id),
	}
	s.engine.SetLogger(s.logger)
	s.engine.SetHooks(engine.Hooks{
		Confirm:   s.confirm,
		OnAnalyze: s.analyze,
	})
	if opts.DeformationScale > 0 {
		f := s.engine.Flags()
		f.DeformationScale = opts.DeformationScale
		s.engine.SetFlags(f)
	}
	s.engine.SetSurfaceSize(opts.Width, opts.Height)
	if opts.Initial != nil {
		s.engine.Editor().LoadModel(*opts.Initial)
		s.engine.FitToView()
	} else {
		s.engine.LoadSampleModel()
	}
	return s
}

// Engine exposes the session's engine for inspection.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Sync sends the full state and a fresh frame.
func (s *Session) Sync() {
	s.emitState()
	s.emitFrame()
}

// Handle applies one client message. Malformed payloads are answered with an
// error message and leave the session unchanged.
func (s *Session) Handle(msg *Message) {
	redraw, err := s.apply(msg)
	if err != nil {
		s.logger.Warn("message rejected", "type", msg.Type, "error", err)
		s.emit(TypeError, ErrorPayload{Message: err.Error(), Type: msg.Type})
		return
	}
	switch redraw {
	case redrawFull:
		s.Sync()
	case redrawFrame:
		s.emitFrame()
	}
}

type redrawKind int

const (
	redrawNone redrawKind = iota
	redrawFrame
	redrawFull
)

func (s *Session) apply(msg *Message) (redrawKind, error) {
	e := s.engine
	switch msg.Type {
	case TypePointer:
		var p PointerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return redrawNone, err
		}
		switch p.Phase {
		case "down":
			e.PointerDown(p.X, p.Y)
		case "move":
			if !e.PointerMove(p.X, p.Y) {
				return redrawNone, nil
			}
			return redrawFrame, nil
		case "up":
			e.PointerUp(p.X, p.Y)
		default:
			return redrawNone, fmt.Errorf("unknown pointer phase %q", p.Phase)
		}
		return redrawFull, nil

	case TypeWheel:
		var p WheelPayload
		if err := decode(msg.Payload, &p); err != nil {
			return redrawNone, err
		}
		e.Wheel(p.X, p.Y, p.DeltaY)
		return redrawFull, nil

	case TypeKey:
		var k engine.KeyEvent
		if err := decode(msg.Payload, &k); err != nil {
			return redrawNone, err
		}
		if !e.Key(k) {
			return redrawNone, nil
		}
		return redrawFull, nil

	case TypeModeSet:
		var p ModePayload
		if err := decode(msg.Payload, &p); err != nil {
			return redrawNone, err
		}
		return redrawFull, e.SetMode(p.Mode, p.ClearSelection)

	case TypeNodeUpdate, TypeMemberUpdate:
		var p UpdatePayload
		if err := decode(msg.Payload, &p); err != nil {
			return redrawNone, err
		}
		if msg.Type == TypeNodeUpdate {
			e.Editor().UpdateNode(p.ID, p.Fields)
		} else {
			e.Editor().UpdateMember(p.ID, p.Fields)
		}
		return redrawFull, nil

	case TypeUndo:
		e.Undo()
		return redrawFull, nil

	case TypeRedo:
		e.Redo()
		return redrawFull, nil

	case TypeFit:
		e.FitToView()
		return redrawFull, nil

	case TypeSurfaceResize:
		var p SurfacePayload
		if err := decode(msg.Payload, &p); err != nil {
			return redrawNone, err
		}
		e.SetSurfaceSize(p.Width, p.Height)
		return redrawFrame, nil

	case TypeModelLoad:
		if err := e.LoadModel(string(msg.Payload)); err != nil {
			return redrawNone, err
		}
		clear(s.pending)
		return redrawFull, nil

	case TypeBackgroundSet:
		var p BackgroundPayload
		if err := decode(msg.Payload, &p); err != nil {
			return redrawNone, err
		}
		e.SetBackground(p.ImageID, p.Width, p.Height)
		return redrawFrame, nil

	case TypeAnalysisRequest:
		e.Analyze()
		return redrawNone, nil

	case TypeAnalysisResult:
		if err := e.SetAnalysisResult(string(msg.Payload)); err != nil {
			return redrawNone, err
		}
		return redrawFull, nil

	case TypeAnalysisClear:
		e.ClearAnalysisResult()
		return redrawFull, nil

	case TypeDisplayFlags:
		if err := e.SetDisplayFlags(string(msg.Payload)); err != nil {
			return redrawNone, err
		}
		return redrawFull, nil

	case TypeConfirmResponse:
		var p ConfirmResponsePayload
		if err := decode(msg.Payload, &p); err != nil {
			return redrawNone, err
		}
		target, ok := s.pending[p.RequestID]
		if !ok {
			return redrawNone, fmt.Errorf("unknown confirm request %q", p.RequestID)
		}
		delete(s.pending, p.RequestID)
		if !p.Accepted {
			return redrawNone, nil
		}
		e.Delete(target)
		return redrawFull, nil
	}
	return redrawNone, fmt.Errorf("unknown message type %q", msg.Type)
}

// confirm parks the delete and asks the client. The editor treats it as
// declined; an accepted confirm.response performs the delete later.
func (s *Session) confirm(req engine.DeleteRequest) bool {
	id := uuid.NewString()
	s.pending[id] = req.Target
	s.emit(TypeConfirmRequest, ConfirmRequestPayload{
		RequestID: id,
		Target:    req.Target,
		Message:   req.Message,
	})
	return false
}

func (s *Session) analyze(m structure.Model) {
	s.emit(TypeAnalyze, AnalyzePayload{Request: analysis.RequestFromModel(m)})
}

func (s *Session) emitState() {
	s.emit(TypeState, StatePayload{
		State: s.engine.StateView(),
		Model: json.RawMessage(s.engine.GetModel()),
	})
}

func (s *Session) emitFrame() {
	s.emit(TypeFrame, FramePayload{Ops: s.engine.Ops()})
}

func (s *Session) emit(typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal payload", "type", typ, "error", err)
		return
	}
	s.send(&Message{Type: typ, SessionID: s.ID, Payload: data})
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
