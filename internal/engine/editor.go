package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// DeleteRequest is what the editor asks the host to confirm before a
// destructive delete.
type DeleteRequest struct {
	Target  Selection `json:"target"`
	Message string    `json:"message"`
}

// Hooks connect the editor to its host. Nil hooks are skipped; a nil Confirm
// approves every delete.
type Hooks struct {
	// Confirm gates destructive deletes. Returning false skips the delete.
	Confirm func(req DeleteRequest) bool
	// OnAnalyze receives a copy of the live model when analysis is requested.
	OnAnalyze func(m structure.Model)
}

// InteractionKind names the gesture in progress between pointer-down and
// pointer-up.
type InteractionKind string

const (
	InteractionNone InteractionKind = ""
	InteractionPan  InteractionKind = "pan"
	InteractionDrag InteractionKind = "drag"
)

// Interaction is the input layer's ephemeral gesture state. It never enters
// State, so it is never snapshotted or undone.
type Interaction struct {
	Kind InteractionKind `json:"kind,omitempty"`
	// LastX/LastY is the previous pointer position in surface units.
	LastX float64 `json:"lastX"`
	LastY float64 `json:"lastY"`

	// Drag only.
	NodeID  string  `json:"nodeId,omitempty"`
	GrabDX  float64 `json:"-"`
	GrabDY  float64 `json:"-"`
	Preview Point   `json:"preview"`
	// Moved is set once the pointer leaves the press position.
	Moved bool `json:"moved,omitempty"`
}

// Editor is the edit-mode caller: it turns pointer, wheel and key input into
// actions, runs them through Reduce and renders the result. It is not safe for
// concurrent use; callers serialize events.
type Editor struct {
	state    State
	viewport Viewport
	surface  Surface
	session  Interaction
	hooks    Hooks
	keys     KeyTable
	logger   *slog.Logger
}

// NewEditor starts an editor on initial with the default key table.
func NewEditor(initial structure.Model, hooks Hooks) *Editor {
	return &Editor{
		state:    NewState(initial),
		viewport: DefaultViewport(),
		hooks:    hooks,
		keys:     DefaultKeyTable(),
		logger:   slog.Default(),
	}
}

func (e *Editor) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

func (e *Editor) SetHooks(h Hooks)       { e.hooks = h }
func (e *Editor) SetKeyTable(t KeyTable) { e.keys = t }

func (e *Editor) State() State             { return e.state }
func (e *Editor) Model() structure.Model   { return e.state.Model() }
func (e *Editor) Mode() Mode               { return e.state.Mode }
func (e *Editor) Selection() Selection     { return e.state.Selection }
func (e *Editor) Viewport() Viewport       { return e.viewport }
func (e *Editor) Surface() Surface         { return e.surface }
func (e *Editor) Interaction() Interaction { return e.session }
func (e *Editor) SetViewport(v Viewport)   { e.viewport = v }

func (e *Editor) SetSurface(width, height float64) {
	e.surface = Surface{Width: width, Height: height}
}

// Dispatch is the single entry point for state transitions. Pointer, key and
// properties-surface input all end up here.
func (e *Editor) Dispatch(a Action) {
	before := e.state
	e.state = Reduce(e.state, a)

	if e.state.History.CurrentID() != before.History.CurrentID() {
		e.logger.Debug("action applied",
			"action", a.Name(),
			"history_index", e.state.History.Index(),
			"history_len", e.state.History.Len(),
		)
	} else if isMutation(a) {
		e.logger.Debug("action rejected", "action", a.Name())
	}

	// A drag on a node that an undo or delete removed cannot commit.
	if e.session.Kind == InteractionDrag && !e.state.Model().HasNode(e.session.NodeID) {
		e.session = Interaction{}
	}
}

func isMutation(a Action) bool {
	switch a.(type) {
	case AddNode, AddMember, MoveNode, DeleteNode, DeleteMember, UpdateNode, UpdateMember, Undo, Redo:
		return true
	}
	return false
}

// SetMode switches mode. The pending member start is always dropped.
func (e *Editor) SetMode(m Mode, clearSelection bool) {
	e.Dispatch(SetMode{Mode: m, ClearSelection: clearSelection})
}

// PointerDown interprets a press at surface point (sx, sy) for the current mode.
func (e *Editor) PointerDown(sx, sy float64) {
	m := e.state.Model()
	node, hitNode := HitNode(m, e.viewport, sx, sy)

	switch e.state.Mode {
	case ModeSelect:
		if hitNode {
			e.Dispatch(Select{Selection: NodeSelection(node.ID)})
			mx, my := e.viewport.SurfaceToModel(sx, sy)
			e.session = Interaction{
				Kind: InteractionDrag, LastX: sx, LastY: sy,
				NodeID: node.ID,
				GrabDX: node.X - mx, GrabDY: node.Y - my,
				Preview: Point{X: node.X, Y: node.Y},
			}
			return
		}
		if mem, ok := HitMember(m, e.viewport, sx, sy); ok {
			e.Dispatch(Select{Selection: MemberSelection(mem.ID)})
			return
		}
		e.Dispatch(Select{})
		e.session = Interaction{Kind: InteractionPan, LastX: sx, LastY: sy}

	case ModeAddNode:
		if hitNode {
			return
		}
		mx, my := e.viewport.SurfaceToModel(sx, sy)
		e.Dispatch(AddNode{Node: structure.Node{
			ID:      m.NextNodeID(),
			X:       math.Round(mx),
			Y:       math.Round(my),
			Support: structure.SupportNone,
		}})

	case ModeAddMember:
		if !hitNode {
			return
		}
		start := e.state.TempMemberStart
		switch {
		case start == "":
			e.Dispatch(BeginMember{NodeID: node.ID})
		case start != node.ID:
			e.Dispatch(AddMember{Member: structure.Member{
				ID:          m.NextMemberID(),
				StartNodeID: start,
				EndNodeID:   node.ID,
				MaterialTag: structure.DefaultMaterial,
			}})
		}

	case ModeDelete:
		if hitNode {
			e.requestDelete(NodeSelection(node.ID))
			return
		}
		if mem, ok := HitMember(m, e.viewport, sx, sy); ok {
			e.requestDelete(MemberSelection(mem.ID))
		}

	case ModeAddLoad:
		// Load values come from the properties surface; the pointer only
		// picks the node they apply to.
		if hitNode {
			e.Dispatch(Select{Selection: NodeSelection(node.ID)})
			return
		}
		e.Dispatch(Select{})
	}
}

// PointerMove continues a pan or drag. It reports whether anything visible
// changed.
func (e *Editor) PointerMove(sx, sy float64) bool {
	switch e.session.Kind {
	case InteractionPan:
		e.viewport = e.viewport.Pan(sx-e.session.LastX, sy-e.session.LastY)
	case InteractionDrag:
		if sx == e.session.LastX && sy == e.session.LastY {
			return false
		}
		mx, my := e.viewport.SurfaceToModel(sx, sy)
		e.session.Preview = Point{X: mx + e.session.GrabDX, Y: my + e.session.GrabDY}
		e.session.Moved = true
	default:
		return false
	}
	e.session.LastX, e.session.LastY = sx, sy
	return true
}

// PointerUp ends the current gesture. A drag commits one MoveNode with the
// rounded preview position. A press released where it started only selects,
// and a pointer-up without a gesture does nothing.
func (e *Editor) PointerUp(sx, sy float64) {
	s := e.session
	e.session = Interaction{}
	if s.Kind != InteractionDrag {
		return
	}
	if sx != s.LastX || sy != s.LastY {
		mx, my := e.viewport.SurfaceToModel(sx, sy)
		s.Preview = Point{X: mx + s.GrabDX, Y: my + s.GrabDY}
		s.Moved = true
	}
	if !s.Moved {
		return
	}
	e.Dispatch(MoveNode{ID: s.NodeID, X: math.Round(s.Preview.X), Y: math.Round(s.Preview.Y)})
}

// Wheel zooms toward the pointer, one WheelZoomStep per event.
func (e *Editor) Wheel(sx, sy, deltaY float64) {
	e.viewport = e.viewport.ZoomAt(sx, sy, WheelFactor(deltaY))
}

// Key runs the command bound to the event's chord. It reports whether a
// binding existed.
func (e *Editor) Key(ev KeyEvent) bool {
	cmd, ok := e.keys[ev.Chord()]
	if !ok {
		return false
	}
	cmd(e)
	return true
}

func (e *Editor) Undo() { e.Dispatch(Undo{}) }
func (e *Editor) Redo() { e.Dispatch(Redo{}) }

// UpdateNode applies raw properties-surface fields to a node.
func (e *Editor) UpdateNode(id string, fields map[string]string) {
	e.Dispatch(UpdateNode{ID: id, Patch: ParseNodeFields(fields)})
}

// UpdateMember applies raw properties-surface fields to a member.
func (e *Editor) UpdateMember(id string, fields map[string]string) {
	e.Dispatch(UpdateMember{ID: id, Patch: ParseMemberFields(fields)})
}

// DeleteSelection deletes the selected element after confirmation. Nothing
// selected is a no-op.
func (e *Editor) DeleteSelection() {
	e.requestDelete(e.state.Selection)
}

// Delete removes target without asking. Hosts that confirm asynchronously
// call it once the user accepted.
func (e *Editor) Delete(target Selection) {
	switch target.Kind {
	case KindNode:
		e.Dispatch(DeleteNode{ID: target.ID})
	case KindMember:
		e.Dispatch(DeleteMember{ID: target.ID})
	}
}

func (e *Editor) requestDelete(target Selection) {
	target = target.Resolve(e.state.Model())
	if target.IsEmpty() {
		return
	}
	req := DeleteRequest{Target: target, Message: deleteMessage(e.state.Model(), target)}
	if e.hooks.Confirm != nil && !e.hooks.Confirm(req) {
		e.logger.Debug("delete declined", "kind", target.Kind, "id", target.ID)
		return
	}
	e.Delete(target)
}

func deleteMessage(m structure.Model, target Selection) string {
	if target.Kind == KindMember {
		return fmt.Sprintf("Delete member %s?", target.ID)
	}
	attached := 0
	for _, mem := range m.Members {
		if mem.StartNodeID == target.ID || mem.EndNodeID == target.ID {
			attached++
		}
	}
	if attached == 0 {
		return fmt.Sprintf("Delete node %s?", target.ID)
	}
	return fmt.Sprintf("Delete node %s and its %d connected member(s)?", target.ID, attached)
}

// FitToView fits the model into the current surface.
func (e *Editor) FitToView() {
	e.viewport = FitToView(e.state.Model(), e.surface.Width, e.surface.Height)
}

// Analyze hands a copy of the live model to the OnAnalyze hook.
func (e *Editor) Analyze() {
	if e.hooks.OnAnalyze == nil {
		return
	}
	e.logger.Info("analysis requested",
		"nodes", len(e.state.Model().Nodes),
		"members", len(e.state.Model().Members),
	)
	e.hooks.OnAnalyze(e.state.Model().Clone())
}

// LoadModel restarts editing on m with a fresh history.
func (e *Editor) LoadModel(m structure.Model) {
	e.session = Interaction{}
	e.Dispatch(LoadSnapshot{Model: m})
}

// Render draws the current edit-mode frame.
func (e *Editor) Render(bg *Background) []DrawOp {
	sc := Scene{
		Model:       e.state.Model(),
		Viewport:    e.viewport,
		Surface:     e.surface,
		Background:  bg,
		Selection:   e.state.Selection,
		PendingNode: e.state.TempMemberStart,
	}
	if e.session.Kind == InteractionDrag {
		sc.Overlay = map[string]Point{e.session.NodeID: e.session.Preview}
	}
	return Render(sc)
}
