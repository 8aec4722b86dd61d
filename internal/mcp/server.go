package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"mailcanvas/internal/editor"
	"mailcanvas/internal/service"
)

// Server is the MCP server for the template editor. It exposes tools,
// resources and prompts so agents can build email templates.
type Server struct {
	mcp        *server.MCPServer
	emitter    service.EventEmitter
	templates  *service.TemplateService
	categories *service.CategoryService
	log        *zap.Logger

	// Active session (set by new_template / open_template)
	mu        sync.Mutex
	activeKey string
}

// Deps holds everything the app layer passes to the MCP server.
type Deps struct {
	Emitter    service.EventEmitter
	Templates  *service.TemplateService
	Categories *service.CategoryService // optional
	Log        *zap.Logger
	Version    string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		emitter:    deps.Emitter,
		templates:  deps.Templates,
		categories: deps.Categories,
		log:        log,
	}

	s.mcp = server.NewMCPServer(
		"mailcanvas-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSessionTools()
	s.registerCanvasTools()
	s.registerHistoryTools()
	s.registerCategoryTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// Listen serves MCP over in/out until ctx is cancelled or in is closed.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))
	s.log.Info("starting MCP stdio server")
	return stdio.Listen(ctx, in, out)
}

// ── Helpers ────────────────────────────────────────────────

// emitCanvasChanged notifies observers that a session's tree changed.
func (s *Server) emitCanvasChanged(ctx context.Context, sess *editor.Session) {
	s.emitter.Emit(ctx, "mcp:canvas-changed", map[string]string{"sessionId": sess.Key()})
}

func (s *Server) setActive(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeKey = key
}

// resolveSession returns the session named by sessionId or the active one.
func (s *Server) resolveSession(args map[string]any) (*editor.Session, error) {
	key, _ := args["sessionId"].(string)
	if key == "" {
		s.mu.Lock()
		key = s.activeKey
		s.mu.Unlock()
	}
	if key == "" {
		return nil, fmt.Errorf("no sessionId provided and no active template (use new_template or open_template first)")
	}
	return s.templates.Session(key)
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

func getInt(args map[string]any, key string) (int, bool) {
	v, ok := args[key].(float64)
	return int(v), ok
}

func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
