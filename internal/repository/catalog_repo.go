package repository

import (
	"context"

	"gorm.io/gorm"
)

// CatalogRepository is the CRUD surface shared by modules, cohorts, classes and modes.
type CatalogRepository[T any] interface {
	List(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id uint) (T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id uint) error
}

type catalogRepository[T any] struct {
	db    *gorm.DB
	order string
}

// NewCatalogRepository constructs a GORM-backed catalog repository ordered by the given clause.
func NewCatalogRepository[T any](db *gorm.DB, order string) CatalogRepository[T] {
	if order == "" {
		order = "id ASC"
	}
	return &catalogRepository[T]{db: db, order: order}
}

func (r *catalogRepository[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.db.WithContext(ctx).Order(r.order).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *catalogRepository[T]) GetByID(ctx context.Context, id uint) (T, error) {
	var item T
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

func (r *catalogRepository[T]) Create(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *catalogRepository[T]) Update(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *catalogRepository[T]) Delete(ctx context.Context, id uint) error {
	var item T
	result := r.db.WithContext(ctx).Delete(&item, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
