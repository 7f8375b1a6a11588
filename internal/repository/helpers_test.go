package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	manager     models.Manager
	facilitator models.Facilitator
	offering    models.CourseOffering
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	managerUser := models.User{Email: "manager@example.com", PasswordHash: "x", FirstName: "Grace", LastName: "Hopper", Role: models.RoleManager, IsActive: true}
	require.NoError(t, db.Create(&managerUser).Error)
	manager := models.Manager{UserID: managerUser.ID, Department: "Academics", IsActive: true}
	require.NoError(t, db.Create(&manager).Error)

	facUser := models.User{Email: "fac@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Lovelace", Role: models.RoleFacilitator, IsActive: true}
	require.NoError(t, db.Create(&facUser).Error)
	facilitator := models.Facilitator{UserID: facUser.ID, Department: "Computing", IsActive: true}
	require.NoError(t, db.Create(&facilitator).Error)

	module := models.Module{Code: "SE101", Name: "Software Engineering", IsActive: true}
	cohort := models.Cohort{Name: "Cohort 1", IsActive: true}
	class := models.Class{Code: "2024S", Name: "2024 September", IsActive: true}
	mode := models.Mode{Name: "online"}
	require.NoError(t, db.Create(&module).Error)
	require.NoError(t, db.Create(&cohort).Error)
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&mode).Error)

	offering := models.CourseOffering{
		ModuleID:      module.ID,
		FacilitatorID: facilitator.ID,
		CohortID:      cohort.ID,
		ClassID:       class.ID,
		ModeID:        mode.ID,
		CreatedBy:     manager.ID,
		Trimester:     "1",
		IntakePeriod:  models.IntakeHT1,
		StartDate:     time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, time.April, 8, 0, 0, 0, 0, time.UTC),
		MaxStudents:   30,
		Status:        models.OfferingStatusActive,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&offering).Error)

	return fixture{manager: manager, facilitator: facilitator, offering: offering}
}

func newTracker(f fixture, week int, weekEnd time.Time) models.ActivityTracker {
	return models.ActivityTracker{
		AllocationID:  f.offering.ID,
		FacilitatorID: f.facilitator.ID,
		WeekNumber:    week,
		WeekStartDate: weekEnd.AddDate(0, 0, -7),
		WeekEndDate:   weekEnd,
	}
}
