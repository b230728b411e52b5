// Package mcp exposes a guarded engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/dataflow"
	"github.com/aretw0/dataflow/internal/logging"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the current graph document.
const GraphURI = "dataflow://graph"

// Server wraps a guarded engine and exposes it as an MCP Server.
type Server struct {
	guard     *dataflow.Guard
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(guard *dataflow.Guard, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		guard:     guard,
		mcpServer: server.NewMCPServer("dataflow-mcp", dataflow.Version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_kinds",
		mcp.WithDescription("List the registered node and slot kinds with their catalog labels."),
	), s.handleListKinds)

	s.mcpServer.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Create a node of a registered kind at a position."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Node kind key, e.g. basic.add")),
		mcp.WithNumber("x", mcp.Description("Horizontal position")),
		mcp.WithNumber("y", mcp.Description("Vertical position")),
	), s.handleCreateNode)

	s.mcpServer.AddTool(mcp.NewTool("remove_node",
		mcp.WithDescription("Remove a node, its slots and every connection touching them."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Node id")),
	), s.handleRemoveNode)

	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Connect an output slot to an input slot."),
		mcp.WithNumber("from", mcp.Required(), mcp.Description("Output slot id")),
		mcp.WithNumber("to", mcp.Required(), mcp.Description("Input slot id")),
	), s.handleConnect)

	s.mcpServer.AddTool(mcp.NewTool("disconnect",
		mcp.WithDescription("Remove a connection by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Connection id")),
	), s.handleDisconnect)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the full graph document: nodes, slots and links."),
	), s.handleGetGraph)

	s.mcpServer.AddTool(mcp.NewTool("save_graph",
		mcp.WithDescription("Save the graph to the configured store."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Graph name")),
	), s.handleSaveGraph)

	s.mcpServer.AddTool(mcp.NewTool("load_graph",
		mcp.WithDescription("Replace the graph with one from the configured store."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Graph name")),
	), s.handleLoadGraph)
}

type kindsResponse struct {
	Nodes []kindView       `json:"nodes"`
	Slots []domain.SlotKey `json:"slots"`
}

type kindView struct {
	Key   domain.NodeKey `json:"key"`
	Label string         `json:"label"`
}

func (s *Server) handleListKinds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp kindsResponse
	_ = s.guard.Do(func(e *dataflow.Engine) error {
		for _, key := range e.Registry().NodeKeys() {
			label, _ := e.Registry().Label(key)
			resp.Nodes = append(resp.Nodes, kindView{Key: key, Label: label})
		}
		resp.Slots = e.Registry().SlotKeys()
		return nil
	})
	return jsonResult(resp)
}

func (s *Server) handleCreateNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	key, _ := args["key"].(string)
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}
	x, _ := number(args, "x")
	y, _ := number(args, "y")

	var rec domain.NodeRecord
	err := s.guard.Do(func(e *dataflow.Engine) error {
		id, err := e.CreateNode(domain.NodeKey(key), x, y, false)
		if err != nil {
			return err
		}
		n, _ := e.Node(id)
		rec = domain.Record(n)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create node failed: %v", err)), nil
	}
	return jsonResult(rec)
}

func (s *Server) handleRemoveNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := number(request.GetArguments(), "id")
	if !ok {
		return mcp.NewToolResultError("id is required"), nil
	}
	var removed bool
	_ = s.guard.Do(func(e *dataflow.Engine) error {
		removed = e.RemoveNode(domain.NodeID(id))
		return nil
	})
	if !removed {
		return mcp.NewToolResultError(fmt.Sprintf("node %d not found", int(id))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("node %d removed", int(id))), nil
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	from, okFrom := number(args, "from")
	to, okTo := number(args, "to")
	if !okFrom || !okTo {
		return mcp.NewToolResultError("from and to are required"), nil
	}

	var (
		id domain.EdgeID
		ok bool
	)
	_ = s.guard.Do(func(e *dataflow.Engine) error {
		id, ok = e.AddEdge(domain.SlotID(from), domain.SlotID(to))
		return nil
	})
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("cannot connect %d -> %d", int(from), int(to))), nil
	}
	return jsonResult(domain.LinkInfo{ID: id, From: domain.SlotID(from), To: domain.SlotID(to)})
}

func (s *Server) handleDisconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := number(request.GetArguments(), "id")
	if !ok {
		return mcp.NewToolResultError("id is required"), nil
	}
	var removed bool
	_ = s.guard.Do(func(e *dataflow.Engine) error {
		removed = e.RemoveEdge(domain.EdgeID(id))
		return nil
	})
	if !removed {
		return mcp.NewToolResultError(fmt.Sprintf("connection %d not found", int(id))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("connection %d removed", int(id))), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.snapshot())
}

func (s *Server) handleSaveGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := request.GetArguments()["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	err := s.guard.Do(func(e *dataflow.Engine) error {
		return e.Save(ctx, name)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("graph %q saved", name)), nil
}

func (s *Server) handleLoadGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := request.GetArguments()["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	var report dataflow.Report
	err := s.guard.Do(func(e *dataflow.Engine) error {
		var err error
		report, err = e.Load(ctx, name)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrGraphNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("graph %q not found", name)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	for _, skipped := range report.Skipped {
		s.logger.Warn("MCP load: entry skipped", "name", name, "err", skipped)
	}
	return mcp.NewToolResultText(fmt.Sprintf("graph %q loaded: %d nodes, %d links, %d skipped",
		name, report.Nodes, report.Links, len(report.Skipped))), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Current Graph Document",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) snapshot() *domain.Document {
	var doc *domain.Document
	_ = s.guard.Do(func(e *dataflow.Engine) error {
		doc = e.Snapshot()
		return nil
	})
	return doc
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// number reads a numeric argument. JSON clients send float64; Go callers may pass ints.
func number(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
