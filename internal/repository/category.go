package repository

import (
	"context"

	"scribe/internal/cache"
	"scribe/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Rename(ctx context.Context, id uint, name string) error
	Delete(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context) ([]models.Category, error)
	AdjustPostCount(ctx context.Context, id uint, delta int) error
	RecountPosts(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return wrapErr(err, "Category", category.Name)
	}
	cache.InvalidateCategories(ctx)
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, wrapErr(err, "Category", id)
	}
	return &category, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, wrapErr(err, "Category", name)
	}
	return &category, nil
}

func (r *categoryRepository) Rename(ctx context.Context, id uint, name string) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return wrapErr(res.Error, "Category", name)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Category", id)
	}
	cache.InvalidateCategories(ctx)
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) (bool, error) {
	defer cache.InvalidateCategories(ctx)
	return deleteByID(ctx, r.db, &models.Category{}, id)
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Order("post_count DESC, name").Find(&categories).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return categories, err
}

func (r *categoryRepository) AdjustPostCount(ctx context.Context, id uint, delta int) error {
	if _, err := increment(ctx, r.db, &models.Category{}, id, map[string]int{"post_count": delta}); err != nil {
		return err
	}
	cache.InvalidateCategories(ctx)
	return nil
}

func (r *categoryRepository) RecountPosts(ctx context.Context) (int64, error) {
	const sub = "(SELECT COUNT(*) FROM posts WHERE posts.category_id = categories.id AND posts.draft = ?)"
	res := r.db.WithContext(ctx).Exec(
		"UPDATE categories SET post_count = "+sub+" WHERE post_count <> "+sub,
		false, false,
	)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateCategories(ctx)
	}
	return res.RowsAffected, nil
}

func (r *categoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Category{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
