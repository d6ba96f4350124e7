package store

import (
	"sync"

	"github.com/google/uuid"
)

// Position is a 2D canvas coordinate. It is owned by the presentation layer
// and carried through unchanged; execution never reads it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single agent on the canvas. Status, LastInput, LastOutput and
// ErrorMessage reflect only the most recent execution attempt.
type Node struct {
	ID           string   `json:"id"`
	Position     Position `json:"position"`
	Label        string   `json:"label"`
	Persona      string   `json:"persona"`
	Status       Status   `json:"status"`
	LastInput    string   `json:"lastInput,omitempty"`
	LastOutput   string   `json:"lastOutput,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

// Connection is a directed edge from Source to Target.
type Connection struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// NodeDraft carries the collaborator-supplied fields of a new node.
type NodeDraft struct {
	Position Position
	Label    string
	Persona  string
}

// NodeUpdate is a partial update; nil fields are left untouched.
type NodeUpdate struct {
	Position *Position
	Label    *string
	Persona  *string
}

// Store holds the node and connection sets. All mutation goes through its
// methods; status writes are independent per-node operations keyed by id so
// that concurrent invocations within one execution level never clobber each
// other through a stale whole-collection snapshot.
type Store struct {
	mu          sync.RWMutex
	nodes       map[string]*Node
	nodeOrder   []string
	connections []Connection
}

// NewStore creates an empty graph store.
func NewStore() *Store {
	return &Store{nodes: make(map[string]*Node)}
}

// AddNode inserts a new idle node and returns its generated id.
func (s *Store) AddNode(draft NodeDraft) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.nodes[id] = &Node{
		ID:       id,
		Position: draft.Position,
		Label:    draft.Label,
		Persona:  draft.Persona,
		Status:   StatusIdle,
	}
	s.nodeOrder = append(s.nodeOrder, id)
	return id
}

// DeleteNode removes a node and every connection touching it.
func (s *Store) DeleteNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[id]; !exists {
		return
	}
	delete(s.nodes, id)
	for i, nid := range s.nodeOrder {
		if nid == id {
			s.nodeOrder = append(s.nodeOrder[:i], s.nodeOrder[i+1:]...)
			break
		}
	}
	s.deleteConnectionsTouchingLocked(id)
}

// UpdateNode applies the non-nil fields of upd to the node. Unknown ids are
// ignored; the collaborator may race a delete and observes no change.
func (s *Store) UpdateNode(id string, upd NodeUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.nodes[id]
	if !exists {
		return
	}
	if upd.Position != nil {
		n.Position = *upd.Position
	}
	if upd.Label != nil {
		n.Label = *upd.Label
	}
	if upd.Persona != nil {
		n.Persona = *upd.Persona
	}
}

// AddConnection inserts a directed edge. Self-loops, duplicate (source,
// target) pairs and missing endpoints are rejected silently: ok is false and
// the connection set is unchanged.
func (s *Store) AddConnection(source, target string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if source == target {
		return "", false
	}
	if _, exists := s.nodes[source]; !exists {
		return "", false
	}
	if _, exists := s.nodes[target]; !exists {
		return "", false
	}
	for _, c := range s.connections {
		if c.Source == source && c.Target == target {
			return "", false
		}
	}

	id := uuid.New().String()
	s.connections = append(s.connections, Connection{ID: id, Source: source, Target: target})
	return id, true
}

// DeleteConnectionsTouching removes every connection whose source or target
// is the given node.
func (s *Store) DeleteConnectionsTouching(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteConnectionsTouchingLocked(nodeID)
}

func (s *Store) deleteConnectionsTouchingLocked(nodeID string) {
	kept := s.connections[:0]
	for _, c := range s.connections {
		if c.Source != nodeID && c.Target != nodeID {
			kept = append(kept, c)
		}
	}
	s.connections = kept
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.nodes[id]
	if !exists {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns a snapshot of all nodes in insertion order.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, *s.nodes[id])
	}
	return out
}

// Connections returns a snapshot of all connections in insertion order.
func (s *Store) Connections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Connection(nil), s.connections...)
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Roots returns, in insertion order, the ids of every node with no incoming
// connection. An empty result on a non-empty graph means every node is the
// target of some connection.
func (s *Store) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	targeted := make(map[string]bool, len(s.connections))
	for _, c := range s.connections {
		targeted[c.Target] = true
	}

	var roots []string
	for _, id := range s.nodeOrder {
		if !targeted[id] {
			roots = append(roots, id)
		}
	}
	return roots
}

// Successors returns the targets of every connection leaving the given node,
// in connection insertion order.
func (s *Store) Successors(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, c := range s.connections {
		if c.Source == id {
			out = append(out, c.Target)
		}
	}
	return out
}

// ResetAll returns every node to idle and clears inputs, outputs and error
// messages. Idempotent.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.nodes {
		n.Status = StatusIdle
		n.LastInput = ""
		n.LastOutput = ""
		n.ErrorMessage = ""
	}
}
