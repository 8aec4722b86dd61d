package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mailcanvas/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Category Service: grouping templates
// ─────────────────────────────────────────────────────────────

// TemplateFiler files templates under categories. storage.TemplateStore
// implements it; remote document stores do not, so categories are only
// available with local storage.
type TemplateFiler interface {
	SetCategory(ctx context.Context, templateID, categoryID string) error
	ClearCategory(ctx context.Context, categoryID string) error
}

var ErrCategoriesUnsupported = errors.New("categories need local template storage")

type categoryInput struct {
	Name string `validate:"required,max=60"`
}

type CategoryService struct {
	store   domain.CategoryStore
	filer   TemplateFiler
	emitter EventEmitter
}

// NewCategoryService creates a CategoryService. filer may be nil.
func NewCategoryService(store domain.CategoryStore, filer TemplateFiler, emitter EventEmitter) *CategoryService {
	return &CategoryService{store: store, filer: filer, emitter: emitter}
}

func (s *CategoryService) List() ([]domain.Category, error) {
	return s.store.ListCategories()
}

func (s *CategoryService) Create(name string) (*domain.Category, error) {
	if err := validate.Struct(categoryInput{Name: name}); err != nil {
		return nil, fmt.Errorf("invalid category: %w", err)
	}
	c := &domain.Category{ID: uuid.NewString(), Name: name}
	if err := s.store.CreateCategory(c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) Rename(id, name string) error {
	if err := validate.Struct(categoryInput{Name: name}); err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}
	c, err := s.store.GetCategory(id)
	if err != nil {
		return err
	}
	c.Name = name
	return s.store.UpdateCategory(c)
}

// Delete removes a category; its templates become uncategorised.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if s.filer != nil {
		if err := s.filer.ClearCategory(ctx, id); err != nil {
			return fmt.Errorf("uncategorise templates: %w", err)
		}
	}
	if err := s.store.DeleteCategory(id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.emitter.Emit(ctx, "category:deleted", id)
	return nil
}

// Assign files a template under a category. An empty categoryID removes it
// from its category.
func (s *CategoryService) Assign(ctx context.Context, templateID, categoryID string) error {
	if s.filer == nil {
		return ErrCategoriesUnsupported
	}
	if categoryID != "" {
		if _, err := s.store.GetCategory(categoryID); err != nil {
			return err
		}
	}
	return s.filer.SetCategory(ctx, templateID, categoryID)
}
