package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentflow/agentflow/internal/engine"
	"github.com/agentflow/agentflow/internal/store"
)

// A three-node flow executed against a deterministic generator, useful for
// poking at the engine without a model provider.
func main() {
	graph := store.NewStore()

	writer := graph.AddNode(store.NodeDraft{Label: "Writer", Persona: "write a short draft"})
	editor := graph.AddNode(store.NodeDraft{Label: "Editor", Persona: "tighten the prose"})
	shouter := graph.AddNode(store.NodeDraft{Label: "Shouter", Persona: "uppercase"})

	if _, ok := graph.AddConnection(writer, editor); !ok {
		panic("connection rejected")
	}
	if _, ok := graph.AddConnection(editor, shouter); !ok {
		panic("connection rejected")
	}

	gen := engine.GeneratorFunc(func(_ context.Context, input, persona string) (string, error) {
		if persona == "uppercase" {
			return strings.ToUpper(input), nil
		}
		return fmt.Sprintf("[%s] %s", persona, input), nil
	})

	eng := engine.New(graph, gen)
	if err := eng.Run(context.Background(), "a story about a lighthouse"); err != nil {
		panic(err)
	}

	for _, n := range graph.Nodes() {
		fmt.Printf("%-8s %-10s %s\n", n.Label, n.Status, n.LastOutput)
	}
}
