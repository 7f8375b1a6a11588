package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

const (
	defaultOfferingPageSize   = 20
	defaultOfferingMaxStudent = 30
)

// CourseOfferingService manages module allocations to facilitators.
type CourseOfferingService interface {
	List(ctx context.Context, actor Actor, req dto.CourseOfferingListRequest) (dto.CourseOfferingListResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.CourseOfferingResponse, error)
	Create(ctx context.Context, actor Actor, req dto.CourseOfferingCreateRequest) (dto.CourseOfferingResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.CourseOfferingUpdateRequest) (dto.CourseOfferingResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type courseOfferingService struct {
	offerings repository.CourseOfferingRepository
	modules   repository.CatalogRepository[models.Module]
	staff     repository.StaffRepository
	audit     AuditRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCourseOfferingService constructs the course offering service.
func NewCourseOfferingService(
	offerings repository.CourseOfferingRepository,
	modules repository.CatalogRepository[models.Module],
	staff repository.StaffRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) CourseOfferingService {
	return &courseOfferingService{
		offerings: offerings,
		modules:   modules,
		staff:     staff,
		audit:     audit,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "course_offering_service").Logger(),
	}
}

func (s *courseOfferingService) List(ctx context.Context, actor Actor, req dto.CourseOfferingListRequest) (dto.CourseOfferingListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseOfferingListResponse{}, err
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultOfferingPageSize
	}

	filter := repository.CourseOfferingFilter{
		Page:         page,
		PageSize:     pageSize,
		IntakePeriod: req.IntakePeriod,
		Status:       req.Status,
	}
	if req.FacilitatorID != 0 {
		filter.FacilitatorID = uintPtr(req.FacilitatorID)
	}
	if req.ModuleID != 0 {
		filter.ModuleID = uintPtr(req.ModuleID)
	}
	if req.CohortID != 0 {
		filter.CohortID = uintPtr(req.CohortID)
	}
	if req.ClassID != 0 {
		filter.ClassID = uintPtr(req.ClassID)
	}
	if !actor.IsManager() {
		if actor.FacilitatorID == nil {
			return dto.CourseOfferingListResponse{}, ErrForbidden
		}
		filter.FacilitatorID = uintPtr(*actor.FacilitatorID)
	}

	offerings, total, err := s.offerings.List(ctx, filter)
	if err != nil {
		return dto.CourseOfferingListResponse{}, err
	}

	items := make([]dto.CourseOfferingResponse, 0, len(offerings))
	for _, offering := range offerings {
		items = append(items, dto.NewCourseOfferingResponse(offering))
	}

	return dto.CourseOfferingListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *courseOfferingService) Get(ctx context.Context, actor Actor, id uint) (dto.CourseOfferingResponse, error) {
	offering, err := s.load(ctx, id)
	if err != nil {
		return dto.CourseOfferingResponse{}, err
	}
	if !actor.IsManager() && !ownsFacilitator(actor, offering.FacilitatorID) {
		return dto.CourseOfferingResponse{}, ErrForbidden
	}
	return dto.NewCourseOfferingResponse(offering), nil
}

func (s *courseOfferingService) Create(ctx context.Context, actor Actor, req dto.CourseOfferingCreateRequest) (dto.CourseOfferingResponse, error) {
	if !actor.IsManager() || actor.ManagerID == nil {
		return dto.CourseOfferingResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseOfferingResponse{}, err
	}

	if _, err := s.modules.GetByID(ctx, req.ModuleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseOfferingResponse{}, fmt.Errorf("%w: module %d", ErrCatalogItemNotFound, req.ModuleID)
		}
		return dto.CourseOfferingResponse{}, err
	}
	if err := s.ensureFacilitator(ctx, req.FacilitatorID); err != nil {
		return dto.CourseOfferingResponse{}, err
	}

	maxStudents := req.MaxStudents
	if maxStudents <= 0 {
		maxStudents = defaultOfferingMaxStudent
	}

	offering := models.CourseOffering{
		ModuleID:      req.ModuleID,
		FacilitatorID: req.FacilitatorID,
		CohortID:      req.CohortID,
		ClassID:       req.ClassID,
		ModeID:        req.ModeID,
		CreatedBy:     *actor.ManagerID,
		Trimester:     strings.TrimSpace(req.Trimester),
		IntakePeriod:  req.IntakePeriod,
		StartDate:     req.StartDate.UTC(),
		EndDate:       req.EndDate.UTC(),
		MaxStudents:   maxStudents,
		Status:        models.OfferingStatusPlanned,
		Notes:         s.sanitizer.Sanitize(req.Notes),
		IsActive:      true,
	}

	if err := s.offerings.Create(ctx, &offering); err != nil {
		return dto.CourseOfferingResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditRecord{
		ActorID:    actor.UserID,
		ActorRole:  normalizeRole(actor.Role),
		Action:     models.AuditOfferingCreated,
		EntityType: "course_offering",
		EntityID:   uintPtr(offering.ID),
		Metadata: map[string]interface{}{
			"module_id":      offering.ModuleID,
			"facilitator_id": offering.FacilitatorID,
		},
	})

	return s.Get(ctx, actor, offering.ID)
}

func (s *courseOfferingService) Update(ctx context.Context, actor Actor, id uint, req dto.CourseOfferingUpdateRequest) (dto.CourseOfferingResponse, error) {
	if !actor.IsManager() {
		return dto.CourseOfferingResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseOfferingResponse{}, err
	}

	offering, err := s.load(ctx, id)
	if err != nil {
		return dto.CourseOfferingResponse{}, err
	}

	changes := map[string]interface{}{}
	if req.FacilitatorID != nil && *req.FacilitatorID != offering.FacilitatorID {
		if err := s.ensureFacilitator(ctx, *req.FacilitatorID); err != nil {
			return dto.CourseOfferingResponse{}, err
		}
		offering.FacilitatorID = *req.FacilitatorID
		changes["facilitator_id"] = offering.FacilitatorID
	}
	if req.ModeID != nil {
		offering.ModeID = *req.ModeID
	}
	if req.Trimester != nil {
		offering.Trimester = strings.TrimSpace(*req.Trimester)
	}
	if req.IntakePeriod != nil {
		offering.IntakePeriod = *req.IntakePeriod
	}
	if req.StartDate != nil {
		offering.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		offering.EndDate = req.EndDate.UTC()
	}
	if !offering.EndDate.After(offering.StartDate) {
		return dto.CourseOfferingResponse{}, ErrInvalidDateRange
	}
	if req.MaxStudents != nil {
		offering.MaxStudents = *req.MaxStudents
	}
	if req.Status != nil && *req.Status != offering.Status {
		offering.Status = *req.Status
		changes["status"] = offering.Status
	}
	if req.Notes != nil {
		offering.Notes = s.sanitizer.Sanitize(*req.Notes)
	}
	if req.IsActive != nil && *req.IsActive != offering.IsActive {
		offering.IsActive = *req.IsActive
		changes["is_active"] = offering.IsActive
	}

	offering.Module = nil
	offering.Cohort = nil
	offering.Class = nil
	offering.Mode = nil
	offering.Facilitator = nil
	if err := s.offerings.Update(ctx, &offering); err != nil {
		return dto.CourseOfferingResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditRecord{
		ActorID:    actor.UserID,
		ActorRole:  normalizeRole(actor.Role),
		Action:     models.AuditOfferingUpdated,
		EntityType: "course_offering",
		EntityID:   uintPtr(offering.ID),
		Metadata:   changes,
	})

	return s.Get(ctx, actor, id)
}

func (s *courseOfferingService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsManager() {
		return ErrForbidden
	}
	if err := s.offerings.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseOfferingNotFound
		}
		return err
	}

	recordAudit(ctx, s.audit, s.logger, AuditRecord{
		ActorID:    actor.UserID,
		ActorRole:  normalizeRole(actor.Role),
		Action:     models.AuditOfferingDeleted,
		EntityType: "course_offering",
		EntityID:   uintPtr(id),
	})
	return nil
}

func (s *courseOfferingService) load(ctx context.Context, id uint) (models.CourseOffering, error) {
	offering, err := s.offerings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CourseOffering{}, ErrCourseOfferingNotFound
		}
		return models.CourseOffering{}, err
	}
	return offering, nil
}

func (s *courseOfferingService) ensureFacilitator(ctx context.Context, id uint) error {
	facilitator, err := s.staff.FindFacilitatorByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id %d", ErrFacilitatorNotFound, id)
		}
		return err
	}
	if !facilitator.IsActive {
		return fmt.Errorf("%w: id %d is inactive", ErrFacilitatorNotFound, id)
	}
	return nil
}
