package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("design_email",
		mcp.WithPromptDescription("Guide through laying out a marketing email on a new template"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the email announces or promotes"),
			mcp.RequiredArgument(),
		),
	), s.handleDesignEmailPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("countdown_banner",
		mcp.WithPromptDescription("Build a hero banner with an overlay headline and a countdown timer"),
		mcp.WithArgument("event",
			mcp.ArgumentDescription("Name of the event being counted down to"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("endsAt",
			mcp.ArgumentDescription("RFC 3339 end time for the timer"),
			mcp.RequiredArgument(),
		),
	), s.handleCountdownPrompt)
}

func (s *Server) handleDesignEmailPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Design an email about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Design an email template about "%s". Follow these steps:

1. Use new_template with a short descriptive name
2. insert_block a columns row with 1 column and insert_element a heading into it; set its text with update_field
3. insert_block a columns row with 2 columns; put an image in the first column and a text element in the second
4. Add a final 1-column row with a button; set its label and url
5. Check the result with get_canvas, then save_template

Keep copy short and scannable. Use undo if an edit goes wrong.`, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleCountdownPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	event := req.Params.Arguments["event"]
	endsAt := req.Params.Arguments["endsAt"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Countdown banner for %s", event),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a countdown banner for "%s" on the active template:

1. insert_block a wrapper (height around 360) and style_block it with a background colour or image
2. insert_element a heading-interactive into the wrapper; update_field its text to the event name
3. move_element the headline to x=50, y=30
4. insert_block a 1-column row below and insert_element a timer; update_field endDate to "%s"
5. rename_element the headline to something descriptive (20 characters max)`, event, endsAt),
				},
			},
		},
	}, nil
}
