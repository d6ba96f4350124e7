// Package web exposes the graph store and execution engine to the canvas UI
// as a small JSON API.
package web

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v3"

	"github.com/agentflow/agentflow/internal/engine"
	"github.com/agentflow/agentflow/internal/store"
)

// Server owns the fiber app plus the per-session run state the UI needs: the
// global input and the outcome of the last run.
type Server struct {
	app    *fiber.App
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger

	mu          sync.Mutex
	globalInput string
	lastRunErr  string
}

// New builds a server around an existing store and engine.
func New(s *store.Store, e *engine.Engine, logger *slog.Logger) *Server {
	srv := &Server{
		app:    fiber.New(),
		store:  s,
		engine: e,
		logger: logger,
	}
	srv.routes()
	return srv
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves the API on addr until the listener fails.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) routes() {
	s.app.Get("/graph", s.handleGraph)
	s.app.Post("/nodes", s.handleAddNode)
	s.app.Patch("/nodes/:id", s.handleUpdateNode)
	s.app.Delete("/nodes/:id", s.handleDeleteNode)
	s.app.Delete("/nodes/:id/connections", s.handleDeleteConnections)
	s.app.Post("/connections", s.handleAddConnection)
	s.app.Put("/input", s.handleSetInput)
	s.app.Post("/run", s.handleRun)
	s.app.Post("/reset", s.handleReset)
}

type nodeBody struct {
	Position *store.Position `json:"position"`
	Label    *string         `json:"label"`
	Persona  *string         `json:"persona"`
}

type connectionBody struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type inputBody struct {
	GlobalInput string `json:"globalInput"`
}

// handleGraph returns everything the canvas renders from.
func (s *Server) handleGraph(c fiber.Ctx) error {
	s.mu.Lock()
	input, lastErr := s.globalInput, s.lastRunErr
	s.mu.Unlock()

	return c.JSON(fiber.Map{
		"nodes":        s.store.Nodes(),
		"connections":  s.store.Connections(),
		"isRunning":    s.engine.Running(),
		"globalInput":  input,
		"lastRunError": lastErr,
	})
}

func (s *Server) handleAddNode(c fiber.Ctx) error {
	var body nodeBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	draft := store.NodeDraft{}
	if body.Position != nil {
		draft.Position = *body.Position
	}
	if body.Label != nil {
		draft.Label = *body.Label
	}
	if body.Persona != nil {
		draft.Persona = *body.Persona
	}
	id := s.store.AddNode(draft)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) handleUpdateNode(c fiber.Ctx) error {
	var body nodeBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	s.store.UpdateNode(c.Params("id"), store.NodeUpdate{
		Position: body.Position,
		Label:    body.Label,
		Persona:  body.Persona,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDeleteNode(c fiber.Ctx) error {
	s.store.DeleteNode(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDeleteConnections(c fiber.Ctx) error {
	s.store.DeleteConnectionsTouching(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// handleAddConnection mirrors the store's silent-rejection contract: a
// rejected connection is a 204, not an error.
func (s *Server) handleAddConnection(c fiber.Ctx) error {
	var body connectionBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	id, ok := s.store.AddConnection(body.Source, body.Target)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) handleSetInput(c fiber.Ctx) error {
	var body inputBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	s.mu.Lock()
	s.globalInput = body.GlobalInput
	s.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}

// handleRun executes the flow to completion before responding. Node-level
// failures are not run failures; they surface through each node's status.
func (s *Server) handleRun(c fiber.Ctx) error {
	s.mu.Lock()
	input := s.globalInput
	s.lastRunErr = ""
	s.mu.Unlock()

	err := s.engine.Run(c.Context(), input)
	switch {
	case errors.Is(err, engine.ErrAlreadyRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		s.mu.Lock()
		s.lastRunErr = err.Error()
		s.mu.Unlock()
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "completed"})
}

func (s *Server) handleReset(c fiber.Ctx) error {
	s.engine.Reset()
	s.mu.Lock()
	s.lastRunErr = ""
	s.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}
