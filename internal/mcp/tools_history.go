package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mailcanvas/internal/domain"
)

func (s *Server) registerHistoryTools() {
	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last recorded edit. Clears the selection."),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone edit. Clears the selection."),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
	), s.handleRedo)

	// ── checkpoints ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_checkpoints",
		mcp.WithDescription("List stored snapshots of a template, newest first"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to the session's template)")),
	), s.handleListCheckpoints)

	s.mcp.AddTool(mcp.NewTool("create_checkpoint",
		mcp.WithDescription("Store a named snapshot of the session's canvas"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("label", mcp.Description("Snapshot label"), mcp.Required()),
	), s.handleCreateCheckpoint)

	s.mcp.AddTool(mcp.NewTool("restore_checkpoint",
		mcp.WithDescription("Replace the session's canvas with a stored snapshot. The restore can be undone."),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("checkpointId", mcp.Description("Checkpoint ID"), mcp.Required()),
	), s.handleRestoreCheckpoint)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !sess.Undo() {
		return textResult("Nothing to undo"), nil
	}
	s.emitCanvasChanged(ctx, sess)
	return jsonResult(viewOf(sess))
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !sess.Redo() {
		return textResult("Nothing to redo"), nil
	}
	s.emitCanvasChanged(ctx, sess)
	return jsonResult(viewOf(sess))
}

func (s *Server) handleListCheckpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, _ := args["templateId"].(string)
	if templateID == "" {
		sess, err := s.resolveSession(args)
		if err != nil {
			return nil, err
		}
		templateID = sess.TemplateID()
	}
	if templateID == "" {
		return nil, fmt.Errorf("template has not been saved yet")
	}
	cps, err := s.templates.Checkpoints(templateID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	if cps == nil {
		cps = []domain.Checkpoint{}
	}
	return jsonResult(cps)
}

func (s *Server) handleCreateCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	label, err := requireString(args, "label")
	if err != nil {
		return nil, err
	}
	cp, err := s.templates.CreateCheckpoint(sess.Key(), label)
	if err != nil {
		return nil, err
	}
	cp.Content = nil
	return jsonResult(cp)
}

func (s *Server) handleRestoreCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "checkpointId")
	if err != nil {
		return nil, err
	}
	if err := s.templates.RestoreCheckpoint(sess.Key(), id); err != nil {
		return nil, err
	}
	s.emitCanvasChanged(ctx, sess)
	return jsonResult(viewOf(sess))
}
