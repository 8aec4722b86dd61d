package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mailcanvas/internal/domain"
)

func (s *Server) registerCategoryTools() {
	if s.categories == nil {
		return
	}
	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List template categories"),
	), s.handleListCategories)

	s.mcp.AddTool(mcp.NewTool("create_category",
		mcp.WithDescription("Create a template category"),
		mcp.WithString("name", mcp.Description("Category name"), mcp.Required()),
	), s.handleCreateCategory)

	s.mcp.AddTool(mcp.NewTool("assign_category",
		mcp.WithDescription("File a saved template under a category; an empty categoryId uncategorises it"),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
		mcp.WithString("categoryId", mcp.Description("Category ID")),
	), s.handleAssignCategory)
}

func (s *Server) handleListCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.categories.List()
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	return jsonResult(cats)
}

func (s *Server) handleCreateCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req.GetArguments(), "name")
	if err != nil {
		return nil, err
	}
	c, err := s.categories.Create(name)
	if err != nil {
		return nil, err
	}
	return jsonResult(c)
}

func (s *Server) handleAssignCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, err := requireString(args, "templateId")
	if err != nil {
		return nil, err
	}
	categoryID, _ := args["categoryId"].(string)
	if err := s.categories.Assign(ctx, templateID, categoryID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Template %s filed under %q", templateID, categoryID)), nil
}
