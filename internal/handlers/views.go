// views.go
//
// Tour operations back-office data service
//
// This file is part of tourdesk.
// tourdesk is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// tourdesk is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with tourdesk.
// If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mascarene/tourdesk/internal/notify"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/table"
	"github.com/mascarene/tourdesk/internal/types"
	"github.com/mascarene/tourdesk/internal/utils"
	"github.com/valyala/fasthttp"
)

// ViewCommand is one user interaction applied to a view session. Values and
// Page accept both scalar and list/string JSON shapes.
type ViewCommand struct {
	Op     string                 `json:"op"`
	Key    string                 `json:"key,omitempty"`
	Query  string                 `json:"query,omitempty"`
	Values types.FlexList[string] `json:"values,omitempty"`
	Page   types.FlexUint64       `json:"page,omitempty"`
	ID     string                 `json:"id,omitempty"`
}

// View is the type-erased surface of one table session; the generic entity
// view in view_defs.go implements it.
type View interface {
	Apply(cmd ViewCommand) error
	State() any
	Options(key string) []table.Option
	ExportCSV(w io.Writer, displayed []string) error
	Changed() <-chan struct{}
	Close()
}

// ViewFactory creates a view bound to ctx; the registry cancels ctx to tear
// the view and its subscriptions down.
type ViewFactory struct {
	Title string
	New   func(ctx context.Context) View
}

type viewSession struct {
	view     View
	title    string
	owner    string
	cancel   context.CancelFunc
	lastUsed time.Time
}

// ViewRegistry holds the live view sessions and the per-entity factories.
// Sessions idle past the TTL are evicted by the janitor.
type ViewRegistry struct {
	mu        sync.Mutex
	ttl       time.Duration
	factories map[string]ViewFactory
	sessions  map[string]*viewSession
}

// NewViewRegistry creates an empty registry with the given idle TTL.
func NewViewRegistry(ttl time.Duration) *ViewRegistry {
	return &ViewRegistry{
		ttl:       ttl,
		factories: make(map[string]ViewFactory),
		sessions:  make(map[string]*viewSession),
	}
}

// RegisterFactory declares the view for one entity route segment.
func (r *ViewRegistry) RegisterFactory(entity string, factory ViewFactory) {
	r.factories[entity] = factory
}

// StartJanitor evicts idle sessions until ctx is cancelled.
func (r *ViewRegistry) StartJanitor(ctx context.Context) {
	interval := r.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.closeAll()
				return
			case <-ticker.C:
				r.evictIdle()
			}
		}
	}()
}

func (r *ViewRegistry) evictIdle() {
	cutoff := time.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			s.cancel()
			delete(r.sessions, id)
		}
	}
}

func (r *ViewRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.cancel()
		delete(r.sessions, id)
	}
}

func (r *ViewRegistry) create(entity string, owner string, sessCtx context.Context) (string, *viewSession, bool) {
	factory, ok := r.factories[entity]
	if !ok {
		return "", nil, false
	}

	ctx, cancel := context.WithCancel(sessCtx)
	s := &viewSession{
		view:     factory.New(ctx),
		title:    factory.Title,
		owner:    owner,
		cancel:   cancel,
		lastUsed: time.Now(),
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	return id, s, true
}

func (r *ViewRegistry) lookup(id, owner string) *viewSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.owner != owner {
		return nil
	}
	s.lastUsed = time.Now()
	return s
}

func (r *ViewRegistry) drop(id, owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.owner != owner {
		return false
	}
	s.cancel()
	delete(r.sessions, id)
	return true
}

// ViewsHandler serves the table view sessions: creation, commands, state,
// the server-sent event stream and CSV export.
type ViewsHandler struct {
	Registry *ViewRegistry
	Notify   notify.Sink
}

// Create handles POST /api/views/:entity
// @Summary Open a table view session
// @Description Creates a live, tenant-scoped table view over one entity collection
// @Tags Views
// @Accept json
// @Produce json
// @Param entity path string true "Entity collection"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /views/{entity} [post]
func (h *ViewsHandler) Create(c *fiber.Ctx) error {
	entity := c.Params("entity")

	sess := session.FromContext(c.UserContext())
	if sess == nil {
		return utils.ErrorResponse(c, "Not authenticated", fiber.StatusForbidden, "views.create")
	}

	// The view outlives this request: rebase the session onto a background
	// context so the repository stream keeps its tenant scope.
	viewCtx := session.NewContext(context.Background(), sess)

	id, s, ok := h.Registry.create(entity, sess.UserID, viewCtx)
	if !ok {
		return utils.NotFoundResponse(c, fmt.Sprintf("No view for entity '%s'", entity))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":    id,
		"title": s.title,
		"state": s.view.State(),
	})
}

// State handles GET /api/views/:id
func (h *ViewsHandler) State(c *fiber.Ctx) error {
	s := h.session(c)
	if s == nil {
		return utils.NotFoundResponse(c, "View session not found")
	}
	return c.Status(fiber.StatusOK).JSON(s.view.State())
}

// Command handles PATCH /api/views/:id with one command or a list of them,
// returning the resulting state.
func (h *ViewsHandler) Command(c *fiber.Ctx) error {
	s := h.session(c)
	if s == nil {
		return utils.NotFoundResponse(c, "View session not found")
	}

	var commands types.FlexList[ViewCommand]
	if err := json.Unmarshal(c.Body(), &commands); err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid command payload: %v", err), fiber.StatusBadRequest, "views.command")
	}

	for _, cmd := range commands.Slice() {
		if err := s.view.Apply(cmd); err != nil {
			return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "views.command")
		}
	}

	return c.Status(fiber.StatusOK).JSON(s.view.State())
}

// FilterOptions handles GET /api/views/:id/options/:key for dropdowns whose
// choices are live.
func (h *ViewsHandler) FilterOptions(c *fiber.Ctx) error {
	s := h.session(c)
	if s == nil {
		return utils.NotFoundResponse(c, "View session not found")
	}
	return c.Status(fiber.StatusOK).JSON(s.view.Options(c.Params("key")))
}

// Events handles GET /api/views/:id/events as a server-sent event stream:
// one "state" event now and after every data or command change, with
// keepalive comments in between.
func (h *ViewsHandler) Events(c *fiber.Ctx) error {
	s := h.session(c)
	if s == nil {
		return utils.NotFoundResponse(c, "View session not found")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	view := s.view
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		if err := writeStateEvent(w, view); err != nil {
			return
		}

		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case _, ok := <-view.Changed():
				if !ok {
					return
				}
				if err := writeStateEvent(w, view); err != nil {
					return
				}
			case <-keepalive.C:
				if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

// Export handles POST /api/views/:id/export: the selected rows as a CSV
// attachment over the displayed columns.
func (h *ViewsHandler) Export(c *fiber.Ctx) error {
	s := h.session(c)
	if s == nil {
		return utils.NotFoundResponse(c, "View session not found")
	}

	var req struct {
		Columns types.FlexList[string] `json:"columns"`
	}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return utils.ErrorResponse(c, fmt.Sprintf("Invalid export payload: %v", err), fiber.StatusBadRequest, "views.export")
		}
	}

	var displayed []string
	if req.Columns != nil {
		displayed = req.Columns.Slice()
	}

	var buf bytes.Buffer
	if err := s.view.ExportCSV(&buf, displayed); err != nil {
		if errors.Is(err, table.ErrNoSelection) {
			h.Notify.Error("Select at least one row to export.")
			return utils.ErrorResponse(c, "No rows selected for export", fiber.StatusBadRequest, "views.export")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "views.export")
	}

	filename := exportFilename(s.title)
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// Close handles DELETE /api/views/:id
func (h *ViewsHandler) Close(c *fiber.Ctx) error {
	sess := session.FromContext(c.UserContext())
	if sess == nil {
		return utils.ErrorResponse(c, "Not authenticated", fiber.StatusForbidden, "views.close")
	}
	if !h.Registry.drop(c.Params("id"), sess.UserID) {
		return utils.NotFoundResponse(c, "View session not found")
	}
	return utils.MutationSuccessResponse(c, c.Params("id"))
}

// Register mounts the view session routes.
func (h *ViewsHandler) Register(router fiber.Router) {
	router.Post("/:entity", h.Create)
	router.Get("/:id", h.State)
	router.Patch("/:id", h.Command)
	router.Get("/:id/options/:key", h.FilterOptions)
	router.Get("/:id/events", h.Events)
	router.Post("/:id/export", h.Export)
	router.Delete("/:id", h.Close)
}

func (h *ViewsHandler) session(c *fiber.Ctx) *viewSession {
	sess := session.FromContext(c.UserContext())
	if sess == nil {
		return nil
	}
	return h.Registry.lookup(c.Params("id"), sess.UserID)
}

func writeStateEvent(w *bufio.Writer, view View) error {
	payload, err := json.Marshal(view.State())
	if err != nil {
		log.Printf("view state marshal failed: %v", err)
		return err
	}
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

// exportFilename derives the attachment name from the view title:
// "Sales Orders" -> "sales-orders-export.csv".
func exportFilename(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		slug = "table"
	}
	return slug + "-export.csv"
}
