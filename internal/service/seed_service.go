package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

// Demo account credentials created by SeedDemo.
const (
	DemoManagerEmail     = "manager@coursetrack.local"
	DemoFacilitatorEmail = "facilitator@coursetrack.local"
	DemoPassword         = "Password123!"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedResult reports what SeedDemo created.
type SeedResult struct {
	Created          bool   `json:"created"`
	ManagerEmail     string `json:"manager_email"`
	FacilitatorEmail string `json:"facilitator_email"`
	OfferingID       uint   `json:"offering_id,omitempty"`
	ActivityLogs     int    `json:"activity_logs"`
}

// SeedService loads demo data for local environments.
type SeedService interface {
	SeedDemo(ctx context.Context, token string) (SeedResult, error)
}

type seedService struct {
	users   repository.UserRepository
	enabled bool
	token   string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSeedService constructs a seeding service. An empty token disables the token check.
func NewSeedService(users repository.UserRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		users:   users,
		enabled: enabled,
		token:   strings.TrimSpace(token),
		logger:  logger.With().Str("component", "seed_service").Logger(),
		now:     time.Now,
	}
}

// SeedDemo creates a manager, a facilitator, one catalog entry of each kind, an active offering and
// three weeks of activity logs. It is a no-op when the demo manager already exists.
func (s *seedService) SeedDemo(ctx context.Context, token string) (SeedResult, error) {
	if !s.enabled {
		return SeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return SeedResult{}, ErrSeedUnauthorized
	}

	result := SeedResult{ManagerEmail: DemoManagerEmail, FacilitatorEmail: DemoFacilitatorEmail}

	if _, err := s.users.FindByEmail(ctx, DemoManagerEmail); err == nil {
		s.logger.Info().Msg("demo data already present")
		return result, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return SeedResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return SeedResult{}, err
	}

	now := s.now().UTC()
	err = s.users.Transaction(ctx, func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		staff := repository.NewStaffRepository(tx)

		managerUser := models.User{Email: DemoManagerEmail, PasswordHash: string(hash), FirstName: "Maria", LastName: "Manager", Role: models.RoleManager, IsActive: true}
		if err := users.Create(ctx, &managerUser); err != nil {
			return err
		}
		manager := models.Manager{UserID: managerUser.ID, Department: "Academics", Permissions: models.DefaultManagerPermissions(), IsActive: true}
		if err := staff.CreateManager(ctx, &manager); err != nil {
			return err
		}

		facilitatorUser := models.User{Email: DemoFacilitatorEmail, PasswordHash: string(hash), FirstName: "Felix", LastName: "Facilitator", Role: models.RoleFacilitator, IsActive: true}
		if err := users.Create(ctx, &facilitatorUser); err != nil {
			return err
		}
		facilitator := models.Facilitator{UserID: facilitatorUser.ID, Department: "Software Engineering", Specializations: datatypes.JSONSlice[string]{"web", "databases"}, IsActive: true}
		if err := staff.CreateFacilitator(ctx, &facilitator); err != nil {
			return err
		}

		module := models.Module{Code: "WEB101", Name: "Web Development", Credits: 15, IsActive: true}
		if err := repository.NewCatalogRepository[models.Module](tx, "").Create(ctx, &module); err != nil {
			return err
		}
		cohortStart := now.AddDate(0, -2, 0)
		cohort := models.Cohort{Name: "Cohort " + now.Format("2006"), StartDate: &cohortStart, IsActive: true}
		if err := repository.NewCatalogRepository[models.Cohort](tx, "").Create(ctx, &cohort); err != nil {
			return err
		}
		class := models.Class{Code: now.Format("2006") + "J", Name: "Class " + now.Format("2006") + "J", IsActive: true}
		if err := repository.NewCatalogRepository[models.Class](tx, "").Create(ctx, &class); err != nil {
			return err
		}
		mode := models.Mode{Name: "online", Description: "Remote delivery"}
		if err := repository.NewCatalogRepository[models.Mode](tx, "").Create(ctx, &mode); err != nil {
			return err
		}

		offering := models.CourseOffering{
			ModuleID:      module.ID,
			FacilitatorID: facilitator.ID,
			CohortID:      cohort.ID,
			ClassID:       class.ID,
			ModeID:        mode.ID,
			CreatedBy:     manager.ID,
			Trimester:     "T1",
			IntakePeriod:  models.IntakeHT1,
			StartDate:     now.AddDate(0, 0, -28),
			EndDate:       now.AddDate(0, 0, 60),
			MaxStudents:   30,
			Status:        models.OfferingStatusActive,
			IsActive:      true,
		}
		if err := repository.NewCourseOfferingRepository(tx).Create(ctx, &offering); err != nil {
			return err
		}

		trackers := demoTrackers(offering, now)
		if err := repository.NewActivityTrackerRepository(tx).BulkCreate(ctx, trackers); err != nil {
			return err
		}

		result.Created = true
		result.OfferingID = offering.ID
		result.ActivityLogs = len(trackers)
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	s.logger.Info().Uint("offering_id", result.OfferingID).Int("activity_logs", result.ActivityLogs).Msg("demo data seeded")
	return result, nil
}

// demoTrackers builds a submitted log from two weeks ago, an overdue one from last week and an open
// one for the current week.
func demoTrackers(offering models.CourseOffering, now time.Time) []models.ActivityTracker {
	week := models.CurrentWeekNumber(now)
	if week < models.MinWeekNumber+2 {
		week = models.MinWeekNumber + 2
	}
	if week > models.MaxWeekNumber {
		week = models.MaxWeekNumber
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	currentStart := today.AddDate(0, 0, -int(today.Weekday()))

	trackers := make([]models.ActivityTracker, 0, 3)
	for offset := 2; offset >= 0; offset-- {
		start := currentStart.AddDate(0, 0, -7*offset)
		tracker := models.ActivityTracker{
			AllocationID:  offering.ID,
			FacilitatorID: offering.FacilitatorID,
			WeekNumber:    week - offset,
			WeekStartDate: start,
			WeekEndDate:   start.AddDate(0, 0, 7),
			Attendance:    datatypes.JSONSlice[bool]{true, true, false, true, true},
		}
		switch offset {
		case 2:
			submitted := start.AddDate(0, 0, 6)
			tracker.FormativeOneGrading = models.TaskDone
			tracker.FormativeTwoGrading = models.TaskDone
			tracker.SummativeGrading = models.TaskDone
			tracker.CourseModeration = models.TaskDone
			tracker.IntranetSync = models.TaskDone
			tracker.GradeBookStatus = models.TaskDone
			tracker.SubmittedAt = &submitted
		case 1:
			tracker.FormativeOneGrading = models.TaskDone
			tracker.FormativeTwoGrading = models.TaskPending
			tracker.SummativeGrading = models.TaskPending
		}
		trackers = append(trackers, tracker)
	}
	return trackers
}

func (s *seedService) validateToken(token string) bool {
	if s.token == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(strings.TrimSpace(token))) == 1
}
