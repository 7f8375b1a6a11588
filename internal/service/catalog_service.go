package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

// CatalogService is the CRUD surface for modules, cohorts, classes and delivery modes.
type CatalogService[T any, R any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (T, error)
	Create(ctx context.Context, req R) (T, error)
	Update(ctx context.Context, id uint, req R) (T, error)
	Delete(ctx context.Context, id uint) error
}

type catalogService[T any, R any] struct {
	repo      repository.CatalogRepository[T]
	validator *validator.Validate
	apply     func(item *T, req R)
	logger    zerolog.Logger
}

func newCatalogService[T any, R any](repo repository.CatalogRepository[T], validate *validator.Validate, entity string, apply func(item *T, req R), logger zerolog.Logger) CatalogService[T, R] {
	return &catalogService[T, R]{
		repo:      repo,
		validator: validate,
		apply:     apply,
		logger:    logger.With().Str("component", "catalog_service").Str("entity", entity).Logger(),
	}
}

// NewModuleService manages modules.
func NewModuleService(repo repository.CatalogRepository[models.Module], validate *validator.Validate, logger zerolog.Logger) CatalogService[models.Module, dto.ModuleRequest] {
	return newCatalogService(repo, validate, "module", func(item *models.Module, req dto.ModuleRequest) {
		item.Code = strings.ToUpper(strings.TrimSpace(req.Code))
		item.Name = strings.TrimSpace(req.Name)
		item.Description = req.Description
		item.Credits = req.Credits
		item.IsActive = boolOr(req.IsActive, true)
	}, logger)
}

// NewCohortService manages cohorts.
func NewCohortService(repo repository.CatalogRepository[models.Cohort], validate *validator.Validate, logger zerolog.Logger) CatalogService[models.Cohort, dto.CohortRequest] {
	return newCatalogService(repo, validate, "cohort", func(item *models.Cohort, req dto.CohortRequest) {
		item.Name = strings.TrimSpace(req.Name)
		item.StartDate = req.StartDate
		item.EndDate = req.EndDate
		item.IsActive = boolOr(req.IsActive, true)
	}, logger)
}

// NewClassService manages classes.
func NewClassService(repo repository.CatalogRepository[models.Class], validate *validator.Validate, logger zerolog.Logger) CatalogService[models.Class, dto.ClassRequest] {
	return newCatalogService(repo, validate, "class", func(item *models.Class, req dto.ClassRequest) {
		item.Code = strings.TrimSpace(req.Code)
		item.Name = strings.TrimSpace(req.Name)
		item.IsActive = boolOr(req.IsActive, true)
	}, logger)
}

// NewModeService manages delivery modes.
func NewModeService(repo repository.CatalogRepository[models.Mode], validate *validator.Validate, logger zerolog.Logger) CatalogService[models.Mode, dto.ModeRequest] {
	return newCatalogService(repo, validate, "mode", func(item *models.Mode, req dto.ModeRequest) {
		item.Name = req.Name
		item.Description = req.Description
	}, logger)
}

func (s *catalogService[T, R]) List(ctx context.Context) ([]T, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *catalogService[T, R]) Get(ctx context.Context, id uint) (T, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		var zero T
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, ErrCatalogItemNotFound
		}
		return zero, err
	}
	return item, nil
}

func (s *catalogService[T, R]) Create(ctx context.Context, req R) (T, error) {
	var item T
	if err := s.validator.Struct(req); err != nil {
		return item, err
	}

	s.apply(&item, req)
	if err := s.repo.Create(ctx, &item); err != nil {
		var zero T
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return zero, ErrCatalogItemExists
		}
		return zero, err
	}
	return item, nil
}

func (s *catalogService[T, R]) Update(ctx context.Context, id uint, req R) (T, error) {
	var zero T
	if err := s.validator.Struct(req); err != nil {
		return zero, err
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return zero, err
	}

	s.apply(&item, req)
	if err := s.repo.Update(ctx, &item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return zero, ErrCatalogItemExists
		}
		return zero, err
	}
	return item, nil
}

func (s *catalogService[T, R]) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCatalogItemNotFound
		}
		return err
	}
	s.logger.Info().Uint("id", id).Msg("catalog item deleted")
	return nil
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
