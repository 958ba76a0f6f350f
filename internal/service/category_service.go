package service

import (
	"context"

	"scribe/internal/models"
	"scribe/internal/repository"
	"scribe/internal/validation"
)

type CategoryService struct {
	categories repository.CategoryRepository
	cascade    *CascadeService
}

func NewCategoryService(categories repository.CategoryRepository, cascade *CascadeService) *CategoryService {
	return &CategoryService{categories: categories, cascade: cascade}
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name, err := validation.ValidateCategoryName(name)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	c := &models.Category{Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Rename(ctx context.Context, id uint, name string) (*models.Category, error) {
	name, err := validation.ValidateCategoryName(name)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.categories.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.categories.GetByID(ctx, id)
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

// Delete removes the category and every post filed under it.
func (s *CategoryService) Delete(ctx context.Context, id, actorID uint) error {
	return s.cascade.DeleteCategory(ctx, id, actorID)
}
