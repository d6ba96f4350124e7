package store

// Per-node status writes used by concurrent node invocations within a single
// execution level. Each write touches only the fields owned by that node's
// invocation, so writes for different nodes commute. Two invocations hitting
// the same node (fan-in) race deliberately: last writer by completion order
// wins.

// MarkRunning records that an invocation of the node started with the given
// input.
func (s *Store) MarkRunning(id, input string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.nodes[id]
	if !exists {
		return
	}
	n.Status = StatusRunning
	n.LastInput = input
	n.ErrorMessage = ""
}

// MarkCompleted records a successful invocation and its output.
func (s *Store) MarkCompleted(id, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.nodes[id]
	if !exists {
		return
	}
	n.Status = StatusCompleted
	n.LastOutput = output
	n.ErrorMessage = ""
}

// MarkError records a failed invocation and the failure message.
func (s *Store) MarkError(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.nodes[id]
	if !exists {
		return
	}
	n.Status = StatusError
	n.ErrorMessage = message
}
