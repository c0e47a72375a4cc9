package structure

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidModel is returned when an externally supplied snapshot breaks a
// model invariant.
var ErrInvalidModel = errors.New("invalid structural model")

// ValidationError describes a single invariant violation in a snapshot.
type ValidationError struct {
	Type     string `json:"type"`
	NodeID   string `json:"node_id,omitempty"`
	MemberID string `json:"member_id,omitempty"`
	Message  string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// Validate checks node id uniqueness, support types and member endpoints.
func Validate(m Model) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(m.Nodes))
	for i, n := range m.Nodes {
		switch {
		case n.ID == "":
			errs = append(errs, ValidationError{
				Type: "node", Message: fmt.Sprintf("node at index %d has empty id", i),
			})
		case seen[n.ID]:
			errs = append(errs, ValidationError{
				Type: "node", NodeID: n.ID, Message: "duplicate node id: " + n.ID,
			})
		default:
			seen[n.ID] = true
		}
		if n.Support != "" && !n.Support.Valid() {
			errs = append(errs, ValidationError{
				Type: "node", NodeID: n.ID, Message: fmt.Sprintf("unknown support type %q", n.Support),
			})
		}
	}

	seenMembers := make(map[string]bool, len(m.Members))
	for i, mem := range m.Members {
		if mem.ID == "" {
			errs = append(errs, ValidationError{
				Type: "member", Message: fmt.Sprintf("member at index %d has empty id", i),
			})
		} else if seenMembers[mem.ID] {
			errs = append(errs, ValidationError{
				Type: "member", MemberID: mem.ID, Message: "duplicate member id: " + mem.ID,
			})
		}
		seenMembers[mem.ID] = true

		if mem.StartNodeID == mem.EndNodeID {
			errs = append(errs, ValidationError{
				Type: "member", MemberID: mem.ID, Message: "member connects a node to itself: " + mem.StartNodeID,
			})
			continue
		}
		for _, end := range []string{mem.StartNodeID, mem.EndNodeID} {
			if !seen[end] {
				errs = append(errs, ValidationError{
					Type: "member", MemberID: mem.ID, NodeID: end, Message: "member endpoint not found: " + end,
				})
			}
		}
	}

	return errs
}

// Decode parses a snapshot from JSON, normalizes defaults and validates it.
func Decode(data []byte) (Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return Model{}, fmt.Errorf("decode model: %w", err)
	}
	if m.Nodes == nil {
		m.Nodes = []Node{}
	}
	if m.Members == nil {
		m.Members = []Member{}
	}
	for i := range m.Nodes {
		if m.Nodes[i].Support == "" {
			m.Nodes[i].Support = SupportNone
		}
	}
	for i := range m.Members {
		if m.Members[i].MaterialTag == "" {
			m.Members[i].MaterialTag = DefaultMaterial
		}
	}

	if errs := Validate(m); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Message
		}
		return Model{}, fmt.Errorf("%w: %s", ErrInvalidModel, strings.Join(msgs, "; "))
	}
	return m, nil
}
