package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mailcanvas/internal/domain"
)

// MaxCheckpoints is how many checkpoints are kept per template.
const MaxCheckpoints = 40

// CheckpointStore persists named canvas snapshots in SQLite.
type CheckpointStore struct {
	db *DB
}

func NewCheckpointStore(db *DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

// Push stores a snapshot of content under label and prunes the oldest
// checkpoints beyond MaxCheckpoints.
func (s *CheckpointStore) Push(templateID, label string, content []domain.CanvasBlock) (*domain.Checkpoint, error) {
	if content == nil {
		content = []domain.CanvasBlock{}
	}
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}
	cp := &domain.Checkpoint{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		Label:      label,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO template_checkpoints (id, template_id, label, content_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		cp.ID, cp.TemplateID, cp.Label, string(data), cp.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert checkpoint: %w", err)
	}
	if err := s.prune(templateID, MaxCheckpoints); err != nil {
		return nil, err
	}
	return cp, nil
}

// List returns a template's checkpoints newest first, without content.
func (s *CheckpointStore) List(templateID string) ([]domain.Checkpoint, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, template_id, label, created_at FROM template_checkpoints
		 WHERE template_id = ? ORDER BY created_at DESC, rowid DESC`, templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []domain.Checkpoint
	for rows.Next() {
		var cp domain.Checkpoint
		if err := rows.Scan(&cp.ID, &cp.TemplateID, &cp.Label, &cp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

func (s *CheckpointStore) Get(id string) (*domain.Checkpoint, error) {
	cp := &domain.Checkpoint{}
	var content string
	err := s.db.Conn().QueryRow(
		`SELECT id, template_id, label, content_json, created_at FROM template_checkpoints WHERE id = ?`, id,
	).Scan(&cp.ID, &cp.TemplateID, &cp.Label, &content, &cp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get checkpoint %s: %w", id, domain.ErrCheckpointNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	if err := json.Unmarshal([]byte(content), &cp.Content); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", id, err)
	}
	return cp, nil
}

// ClearTemplate removes all checkpoints of a template.
func (s *CheckpointStore) ClearTemplate(templateID string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM template_checkpoints WHERE template_id = ?`, templateID)
	return err
}

// prune removes the oldest checkpoints when count exceeds keep.
func (s *CheckpointStore) prune(templateID string, keep int) error {
	_, err := s.db.Conn().Exec(
		`DELETE FROM template_checkpoints WHERE template_id = ? AND id NOT IN (
			SELECT id FROM template_checkpoints WHERE template_id = ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, templateID, templateID, keep,
	)
	if err != nil {
		return fmt.Errorf("prune checkpoints: %w", err)
	}
	return nil
}
