package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mailcanvas/internal/domain"
)

// TemplateStore implements domain.TemplateStore using SQLite. The canvas is
// stored as its JSON encoding.
type TemplateStore struct {
	db *DB
}

func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// SaveTemplate inserts a new template when templateID is empty, otherwise
// overwrites (or creates) the template with that id.
func (s *TemplateStore) SaveTemplate(ctx context.Context, name string, content []domain.CanvasBlock, templateID string) (*domain.SaveResult, error) {
	if content == nil {
		content = []domain.CanvasBlock{}
	}
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	if templateID == "" {
		templateID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err = s.db.Conn().ExecContext(ctx,
		`INSERT INTO templates (id, name, content_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, content_json = excluded.content_json, updated_at = excluded.updated_at`,
		templateID, name, string(data), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return &domain.SaveResult{ID: templateID, UpdatedAt: now}, nil
}

func (s *TemplateStore) LoadTemplate(ctx context.Context, id string) (*domain.Template, error) {
	t := &domain.Template{}
	var content string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, name, category_id, content_json, created_at, updated_at FROM templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.CategoryID, &content, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load template %s: %w", id, domain.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if err := json.Unmarshal([]byte(content), &t.Content); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", id, err)
	}
	if t.Content == nil {
		t.Content = []domain.CanvasBlock{}
	}
	return t, nil
}

func (s *TemplateStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, name, category_id, updated_at FROM templates ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.TemplateSummary
	for rows.Next() {
		var t domain.TemplateSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.CategoryID, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TemplateStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete template %s: %w", id, domain.ErrTemplateNotFound)
	}
	return nil
}

// SetCategory files a template under a category. An empty categoryID
// removes it from any category.
func (s *TemplateStore) SetCategory(ctx context.Context, id, categoryID string) error {
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE templates SET category_id = ? WHERE id = ?`, categoryID, id,
	)
	if err != nil {
		return fmt.Errorf("set template category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set template category %s: %w", id, domain.ErrTemplateNotFound)
	}
	return nil
}

// ClearCategory detaches every template from categoryID.
func (s *TemplateStore) ClearCategory(ctx context.Context, categoryID string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`UPDATE templates SET category_id = '' WHERE category_id = ?`, categoryID,
	)
	return err
}

// Close is a no-op; the DB is owned by the caller that opened it.
func (s *TemplateStore) Close() error { return nil }
