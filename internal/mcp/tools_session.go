package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mailcanvas/internal/domain"
	"mailcanvas/internal/editor"
)

func (s *Server) registerSessionTools() {
	// ── new_template ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("new_template",
		mcp.WithDescription("Start a new, empty email template and make it the active session"),
		mcp.WithString("name", mcp.Description("Template name"), mcp.Required()),
	), s.handleNewTemplate)

	// ── open_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_template",
		mcp.WithDescription("Open a saved template for editing and make it the active session"),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
	), s.handleOpenTemplate)

	// ── close_template ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_template",
		mcp.WithDescription("Close a session, saving unsaved changes first"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
	), s.handleCloseTemplate)

	// ── list_templates ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List saved templates, most recently updated first"),
	), s.handleListTemplates)

	// ── get_canvas ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_canvas",
		mcp.WithDescription("Return the session's canvas tree, selection and undo state"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
	), s.handleGetCanvas)

	// ── save_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_template",
		mcp.WithDescription("Save the session's canvas to the template store"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("name", mcp.Description("Rename the template before saving (optional)")),
	), s.handleSaveTemplate)

	// ── delete_template (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_template",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a saved template and its checkpoints"),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteTemplate)
}

func boolPtr(v bool) *bool { return &v }

// canvasView is what get_canvas returns.
type canvasView struct {
	SessionID     string               `json:"sessionId"`
	TemplateID    string               `json:"templateId,omitempty"`
	Name          string               `json:"name"`
	Dirty         bool                 `json:"dirty"`
	Selection     domain.Selection     `json:"selection"`
	SelectionType domain.VariantTag    `json:"selectionType,omitempty"`
	History       editor.HistoryState  `json:"history"`
	Tree          []domain.CanvasBlock `json:"tree"`
}

func viewOf(sess *editor.Session) canvasView {
	tag, _ := sess.SelectionType()
	return canvasView{
		SessionID:     sess.Key(),
		TemplateID:    sess.TemplateID(),
		Name:          sess.Name(),
		Dirty:         sess.Dirty(),
		Selection:     sess.Selection(),
		SelectionType: tag,
		History:       sess.History(),
		Tree:          sess.Tree(),
	}
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleNewTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req.GetArguments(), "name")
	if err != nil {
		return nil, err
	}
	sess := s.templates.NewSession(name)
	s.setActive(sess.Key())
	return jsonResult(map[string]string{"sessionId": sess.Key(), "name": name})
}

func (s *Server) handleOpenTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	sess, err := s.templates.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setActive(sess.Key())
	return jsonResult(viewOf(sess))
}

func (s *Server) handleCloseTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.templates.Close(ctx, sess.Key()); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.activeKey == sess.Key() {
		s.activeKey = ""
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Session %s closed", sess.Key())), nil
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if list == nil {
		list = []domain.TemplateSummary{}
	}
	return jsonResult(list)
}

func (s *Server) handleGetCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(viewOf(sess))
}

func (s *Server) handleSaveTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	if name, ok := args["name"].(string); ok && name != "" {
		sess.Rename(name)
	}
	res, err := s.templates.Save(ctx, sess.Key())
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}

func (s *Server) handleDeleteTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Template %s deleted", id)), nil
}
