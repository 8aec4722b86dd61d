package domain

import (
	"context"
	"time"
)

// Template is a persisted canvas, keyed by an externally issued id.
type Template struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	CategoryID string        `json:"categoryId,omitempty"`
	Content    []CanvasBlock `json:"content"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TemplateSummary is a Template without its content.
type TemplateSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CategoryID string    `json:"categoryId,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SaveResult is what the document store returns from a save.
type SaveResult struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TemplateStore is the persistence collaborator. Content crosses this
// boundary untransformed: the stored shape is the in-memory shape.
type TemplateStore interface {
	// SaveTemplate creates a template when templateID is empty and
	// overwrites it otherwise.
	SaveTemplate(ctx context.Context, name string, content []CanvasBlock, templateID string) (*SaveResult, error)
	LoadTemplate(ctx context.Context, id string) (*Template, error)
	ListTemplates(ctx context.Context) ([]TemplateSummary, error)
	DeleteTemplate(ctx context.Context, id string) error
	Close() error
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CategoryStore interface {
	CreateCategory(c *Category) error
	GetCategory(id string) (*Category, error)
	ListCategories() ([]Category, error)
	UpdateCategory(c *Category) error
	DeleteCategory(id string) error
}

// Checkpoint is a named snapshot of a template's canvas kept outside the
// in-memory undo log.
type Checkpoint struct {
	ID         string        `json:"id"`
	TemplateID string        `json:"templateId"`
	Label      string        `json:"label"`
	Content    []CanvasBlock `json:"content,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}
