package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/agentflow/agentflow/internal/store"
	"github.com/pkg/errors"
)

var (
	// ErrNoStartNode is returned when the graph is non-empty but every node
	// has an incoming connection, so there is nothing to seed a run with.
	ErrNoStartNode = errors.New("no start node: every node has an incoming connection")

	// ErrAlreadyRunning is returned by a re-entrant Run call.
	ErrAlreadyRunning = errors.New("a run is already in progress")

	// ErrLevelLimit is returned when propagation exceeds the level cap,
	// which only happens when a cycle is reachable from a root.
	ErrLevelLimit = errors.New("level limit exceeded")
)

// Generator produces text from an input conditioned on a persona
// instruction. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, input, persona string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, input, persona string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, input, persona string) (string, error) {
	return f(ctx, input, persona)
}

// JoinPolicy controls how multiple signals arriving at the same node within
// one level are handled.
type JoinPolicy int

const (
	// JoinIndependent invokes the node once per incoming signal; the last
	// invocation to settle wins the node's recorded state.
	JoinIndependent JoinPolicy = iota

	// JoinConcatenate coalesces same-level signals to one node into a single
	// invocation whose input is the upstream outputs joined in order.
	JoinConcatenate
)

// signal is one pending invocation: a node and the input it will receive.
type signal struct {
	nodeID string
	input  string
}

// Engine drives level-synchronous propagation over a Store. Within a level
// every invocation runs concurrently; levels are separated by a barrier, so
// level k is fully settled before level k+1 is computed.
type Engine struct {
	store   *store.Store
	gen     Generator
	logger  *slog.Logger
	running atomic.Bool

	maxLevels int
	join      JoinPolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxLevels caps the number of levels a run may execute. Zero means the
// cap is the node count at run start, which acyclic propagation cannot reach.
func WithMaxLevels(n int) Option {
	return func(e *Engine) { e.maxLevels = n }
}

// WithJoinPolicy sets the fan-in policy. The default is JoinIndependent.
func WithJoinPolicy(p JoinPolicy) Option {
	return func(e *Engine) { e.join = p }
}

// New creates an engine over the given store and generation client.
func New(s *store.Store, gen Generator, opts ...Option) *Engine {
	e := &Engine{store: s, gen: gen, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Running reports whether a run is currently in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Reset returns every node to idle and clears inputs, outputs and errors. It
// is advisory with respect to an in-flight run: invocations already issued
// still settle and overwrite the cleared state.
func (e *Engine) Reset() {
	e.store.ResetAll()
}

// Run executes the graph. Every root node receives globalInput, outputs flow
// along connections level by level, and the run ends when the frontier
// empties. Node-level generation failures are recorded on the node and stop
// propagation past it; only the absence of any root aborts the run before
// invoking anything. A Run issued while another is in progress returns
// ErrAlreadyRunning without touching the store.
func (e *Engine) Run(ctx context.Context, globalInput string) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	e.store.ResetAll()

	if e.store.Len() == 0 {
		return nil
	}
	roots := e.store.Roots()
	if len(roots) == 0 {
		return ErrNoStartNode
	}

	frontier := make([]signal, 0, len(roots))
	for _, id := range roots {
		frontier = append(frontier, signal{nodeID: id, input: globalInput})
	}

	maxLevels := e.maxLevels
	if maxLevels <= 0 {
		maxLevels = e.store.Len()
	}

	for level := 0; len(frontier) > 0; level++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "run cancelled")
		}
		if level >= maxLevels {
			return errors.Wrapf(ErrLevelLimit, "after %d levels", level)
		}

		e.logger.Debug("executing level", "level", level, "nodes", len(frontier))
		frontier = e.executeLevel(ctx, frontier)
	}
	return nil
}

// executeLevel invokes every signal in the frontier concurrently, waits for
// all of them to settle, and returns the next frontier. Results are gathered
// per slot so the next frontier preserves frontier order regardless of
// completion order.
func (e *Engine) executeLevel(ctx context.Context, frontier []signal) []signal {
	outputs := make([]string, len(frontier))
	succeeded := make([]bool, len(frontier))

	var wg sync.WaitGroup
	for i, sig := range frontier {
		wg.Add(1)
		go func(i int, sig signal) {
			defer wg.Done()

			node, exists := e.store.Node(sig.nodeID)
			if !exists {
				// Deleted while queued; nothing to invoke.
				return
			}

			e.store.MarkRunning(sig.nodeID, sig.input)
			out, err := e.gen.Generate(ctx, sig.input, node.Persona)
			if err != nil {
				e.logger.Warn("node failed", "node", sig.nodeID, "label", node.Label, "err", err)
				e.store.MarkError(sig.nodeID, err.Error())
				return
			}
			e.store.MarkCompleted(sig.nodeID, out)
			outputs[i] = out
			succeeded[i] = true
		}(i, sig)
	}
	wg.Wait()

	var next []signal
	for i, sig := range frontier {
		if !succeeded[i] {
			continue
		}
		for _, target := range e.store.Successors(sig.nodeID) {
			next = append(next, signal{nodeID: target, input: outputs[i]})
		}
	}
	if e.join == JoinConcatenate {
		next = coalesce(next)
	}
	return next
}

// coalesce merges signals targeting the same node into one, joining their
// inputs in frontier order. The first occurrence keeps its position.
func coalesce(signals []signal) []signal {
	index := make(map[string]int, len(signals))
	var out []signal
	for _, sig := range signals {
		if i, seen := index[sig.nodeID]; seen {
			out[i].input += "\n\n" + sig.input
			continue
		}
		index[sig.nodeID] = len(out)
		out = append(out, sig)
	}
	return out
}
