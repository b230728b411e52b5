// Package http exposes a guarded engine as a JSON REST API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/dataflow"
	"github.com/aretw0/dataflow/internal/logging"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the REST API of one engine.
type Server struct {
	Guard   *dataflow.Guard
	Streams *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the collectors of g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithStreams shares an event stream with other producers, such as a file watcher.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewHandler creates the HTTP handler for the guarded engine.
func NewHandler(guard *dataflow.Guard, opts ...Option) http.Handler {
	s := &Server{
		Guard:   guard,
		Streams: NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/catalog", s.GetCatalog)
	r.Get("/stats", s.GetStats)

	r.Get("/graph", s.GetGraph)
	r.Put("/graph", s.PutGraph)
	r.Delete("/graph", s.ClearGraph)
	r.Post("/graphs/{name}/save", s.SaveGraph)
	r.Post("/graphs/{name}/load", s.LoadGraph)

	r.Get("/nodes", s.ListNodes)
	r.Post("/nodes", s.CreateNode)
	r.Get("/nodes/{id}", s.GetNode)
	r.Patch("/nodes/{id}", s.MoveNode)
	r.Delete("/nodes/{id}", s.DeleteNode)

	r.Get("/links", s.ListLinks)
	r.Post("/links", s.CreateLink)
	r.Delete("/links/{id}", s.DeleteLink)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NodeView is a node as returned by the API.
type NodeView struct {
	domain.NodeRecord
	Label string `json:"label,omitempty"`
}

// CreateNodeRequest is the body of POST /nodes.
type CreateNodeRequest struct {
	Key         domain.NodeKey `json:"key"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	ScreenSpace bool           `json:"screen_space"`
}

// MoveNodeRequest is the body of PATCH /nodes/{id}.
type MoveNodeRequest struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ScreenSpace bool    `json:"screen_space"`
}

// CreateLinkRequest is the body of POST /links.
type CreateLinkRequest struct {
	From domain.SlotID `json:"from"`
	To   domain.SlotID `json:"to"`
}

// CatalogEntry is one line of the catalog tree.
type CatalogEntry struct {
	Depth int    `json:"depth"`
	Leaf  bool   `json:"leaf"`
	Key   string `json:"key,omitempty"`
	Name  string `json:"name"`
}

// ReportView is the outcome of a restore.
type ReportView struct {
	Nodes   int      `json:"nodes"`
	Links   int      `json:"links"`
	Skipped []string `json:"skipped,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "dataflow-http",
		"version": dataflow.Version,
	})
}

// GetCatalog handles GET /catalog.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	var entries []CatalogEntry
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		e.Catalog().Walk(func(_, depth int, leaf bool, key, name string) {
			entries = append(entries, CatalogEntry{Depth: depth, Leaf: leaf, Key: key, Name: name})
		})
		return nil
	})
	s.writeJSON(w, http.StatusOK, entries)
}

// GetStats handles GET /stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats dataflow.Stats
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		stats = e.Stats()
		return nil
	})
	s.writeJSON(w, http.StatusOK, stats)
}

// GetGraph handles GET /graph and returns the whole document.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var doc *domain.Document
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		doc = e.Snapshot()
		return nil
	})
	s.writeJSON(w, http.StatusOK, doc)
}

// PutGraph handles PUT /graph and replaces the graph with the posted document.
func (s *Server) PutGraph(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if !s.decode(w, r, &doc) {
		return
	}
	var report dataflow.Report
	err := s.Guard.Do(func(e *dataflow.Engine) error {
		var err error
		report, err = e.Restore(&doc)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Broadcast(Event{Type: "graph.restored"})
	s.writeJSON(w, http.StatusOK, reportView(report))
}

// ClearGraph handles DELETE /graph.
func (s *Server) ClearGraph(w http.ResponseWriter, r *http.Request) {
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		e.Clear()
		return nil
	})
	s.Streams.Broadcast(Event{Type: "graph.cleared"})
	w.WriteHeader(http.StatusNoContent)
}

// SaveGraph handles POST /graphs/{name}/save.
func (s *Server) SaveGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.Guard.Do(func(e *dataflow.Engine) error {
		return e.Save(r.Context(), name)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadGraph handles POST /graphs/{name}/load.
func (s *Server) LoadGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var report dataflow.Report
	err := s.Guard.Do(func(e *dataflow.Engine) error {
		var err error
		report, err = e.Load(r.Context(), name)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Broadcast(Event{Type: "graph.restored", Name: name})
	s.writeJSON(w, http.StatusOK, reportView(report))
}

// ListNodes handles GET /nodes.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	var views []NodeView
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		views = make([]NodeView, 0, len(e.Nodes()))
		for _, n := range e.Nodes() {
			views = append(views, view(e, n))
		}
		return nil
	})
	s.writeJSON(w, http.StatusOK, views)
}

// CreateNode handles POST /nodes.
func (s *Server) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	var out NodeView
	err := s.Guard.Do(func(e *dataflow.Engine) error {
		id, err := e.CreateNode(req.Key, req.X, req.Y, req.ScreenSpace)
		if err != nil {
			return err
		}
		n, _ := e.Node(id)
		out = view(e, n)
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		s.writeError(w, err)
		return
	}
	s.Streams.Broadcast(Event{Type: "node.created", ID: int(out.ID)})
	s.writeJSON(w, http.StatusCreated, out)
}

// GetNode handles GET /nodes/{id}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var out NodeView
	err := s.Guard.Do(func(e *dataflow.Engine) error {
		n, ok := e.Node(domain.NodeID(id))
		if !ok {
			return fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
		}
		out = view(e, n)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

// MoveNode handles PATCH /nodes/{id}.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req MoveNodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	var out NodeView
	err := s.Guard.Do(func(e *dataflow.Engine) error {
		n, ok := e.Node(domain.NodeID(id))
		if !ok {
			return fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
		}
		n.SetPosition(req.X, req.Y, req.ScreenSpace)
		out = view(e, n)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Broadcast(Event{Type: "node.moved", ID: id})
	s.writeJSON(w, http.StatusOK, out)
}

// DeleteNode handles DELETE /nodes/{id}.
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var removed bool
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		removed = e.RemoveNode(domain.NodeID(id))
		return nil
	})
	if !removed {
		s.writeError(w, fmt.Errorf("node %d: %w", id, domain.ErrNotFound))
		return
	}
	s.Streams.Broadcast(Event{Type: "node.removed", ID: id})
	w.WriteHeader(http.StatusNoContent)
}

// ListLinks handles GET /links.
func (s *Server) ListLinks(w http.ResponseWriter, r *http.Request) {
	var links []domain.LinkInfo
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		links = e.Links()
		return nil
	})
	s.writeJSON(w, http.StatusOK, links)
}

// CreateLink handles POST /links. A refused connection answers 409.
func (s *Server) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if !s.decode(w, r, &req) {
		return
	}
	var (
		id domain.EdgeID
		ok bool
	)
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		id, ok = e.AddEdge(req.From, req.To)
		return nil
	})
	if !ok {
		s.writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("cannot connect %d -> %d", req.From, req.To),
		})
		return
	}
	s.Streams.Broadcast(Event{Type: "link.created", ID: int(id)})
	s.writeJSON(w, http.StatusCreated, domain.LinkInfo{ID: id, From: req.From, To: req.To})
}

// DeleteLink handles DELETE /links/{id}.
func (s *Server) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var removed bool
	_ = s.Guard.Do(func(e *dataflow.Engine) error {
		removed = e.RemoveEdge(domain.EdgeID(id))
		return nil
	})
	if !removed {
		s.writeError(w, fmt.Errorf("link %d: %w", id, domain.ErrNotFound))
		return
	}
	s.Streams.Broadcast(Event{Type: "link.removed", ID: id})
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func view(e *dataflow.Engine, n domain.Node) NodeView {
	label, _ := e.Registry().Label(n.Key())
	return NodeView{NodeRecord: domain.Record(n), Label: label}
}

func reportView(r dataflow.Report) ReportView {
	v := ReportView{Nodes: r.Nodes, Links: r.Links}
	for _, err := range r.Skipped {
		v.Skipped = append(v.Skipped, err.Error())
	}
	return v
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid id %q", raw), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrGraphNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedDocument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoStore):
		status = http.StatusNotImplemented
	default:
		s.logger.Error("Request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
