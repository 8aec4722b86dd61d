package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mailcanvas/internal/domain"
)

// CategoryStore implements domain.CategoryStore using SQLite.
type CategoryStore struct {
	db *DB
}

func NewCategoryStore(db *DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) CreateCategory(c *domain.Category) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.db.Conn().Exec(
		`INSERT INTO categories (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (s *CategoryStore) GetCategory(id string) (*domain.Category, error) {
	c := &domain.Category{}
	err := s.db.Conn().QueryRow(
		`SELECT id, name, created_at, updated_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get category %s: %w", id, domain.ErrCategoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) ListCategories() ([]domain.Category, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, name, created_at, updated_at FROM categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CategoryStore) UpdateCategory(c *domain.Category) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.Conn().Exec(
		`UPDATE categories SET name = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update category %s: %w", c.ID, domain.ErrCategoryNotFound)
	}
	return nil
}

func (s *CategoryStore) DeleteCategory(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM categories WHERE id = ?`, id)
	return err
}
