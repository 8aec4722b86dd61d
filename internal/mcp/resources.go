package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"mailcanvas/internal/domain"
)

const (
	templatesURI      = "mailcanvas://templates"
	templateURIPrefix = "mailcanvas://template/"
)

func (s *Server) registerResources() {
	// ── mailcanvas://templates ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		templatesURI,
		"All Templates",
		mcp.WithMIMEType("application/json"),
	), s.handleTemplatesResource)

	// ── mailcanvas://template/{templateId} ─────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			templateURIPrefix+"{templateId}",
			"Template Canvas",
		),
		s.handleTemplateResource,
	)
}

func (s *Server) handleTemplatesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.TemplateSummary{}
	}
	data, _ := json.MarshalIndent(list, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      templatesURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleTemplateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, templateURIPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("could not extract templateId from URI: %s", uri)
	}
	t, err := s.templates.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(t, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
