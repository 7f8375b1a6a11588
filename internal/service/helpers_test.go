package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/queue"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

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

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func newTestQueue(t *testing.T, client *redis.Client) *queue.NotificationQueue {
	t.Helper()
	q, err := queue.New(client, queue.Options{}, testLogger())
	require.NoError(t, err)
	return q
}

type fixture struct {
	managers    []models.Manager
	facilitator models.Facilitator
	offering    models.CourseOffering
}

func seedFixture(t *testing.T, db *gorm.DB, managerCount int) fixture {
	t.Helper()

	var f fixture
	for i := 0; i < managerCount; i++ {
		user := models.User{
			Email:        fmt.Sprintf("manager%d@example.com", i+1),
			PasswordHash: "x",
			FirstName:    fmt.Sprintf("Manager%d", i+1),
			LastName:     "Example",
			Role:         models.RoleManager,
			IsActive:     true,
		}
		require.NoError(t, db.Create(&user).Error)
		manager := models.Manager{UserID: user.ID, Department: "Academics", IsActive: true}
		require.NoError(t, db.Create(&manager).Error)
		manager.User = &user
		f.managers = append(f.managers, manager)
	}

	facUser := models.User{Email: "ada@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Lovelace", Role: models.RoleFacilitator, IsActive: true}
	require.NoError(t, db.Create(&facUser).Error)
	facilitator := models.Facilitator{UserID: facUser.ID, Department: "Computing", IsActive: true}
	require.NoError(t, db.Create(&facilitator).Error)
	facilitator.User = &facUser
	f.facilitator = facilitator

	module := models.Module{Code: "SE101", Name: "Software Engineering", IsActive: true}
	cohort := models.Cohort{Name: "Cohort 1", IsActive: true}
	class := models.Class{Code: "2024S", Name: "2024 September", IsActive: true}
	mode := models.Mode{Name: "online"}
	require.NoError(t, db.Create(&module).Error)
	require.NoError(t, db.Create(&cohort).Error)
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&mode).Error)

	createdBy := uint(1)
	if len(f.managers) > 0 {
		createdBy = f.managers[0].ID
	}
	offering := models.CourseOffering{
		ModuleID:      module.ID,
		FacilitatorID: facilitator.ID,
		CohortID:      cohort.ID,
		ClassID:       class.ID,
		ModeID:        mode.ID,
		CreatedBy:     createdBy,
		Trimester:     "1",
		IntakePeriod:  models.IntakeHT1,
		StartDate:     time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, time.April, 8, 0, 0, 0, 0, time.UTC),
		MaxStudents:   30,
		Status:        models.OfferingStatusActive,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&offering).Error)
	f.offering = offering

	return f
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

type recordedJob struct {
	Type models.NotificationType
	Data models.NotificationData
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []recordedJob
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, t models.NotificationType, data models.NotificationData) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.jobs = append(q.jobs, recordedJob{Type: t, Data: data})
	return fmt.Sprintf("%s_%d", t.Lower(), len(q.jobs)), nil
}

func (q *recordingQueue) ofType(t models.NotificationType) []recordedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []recordedJob
	for _, job := range q.jobs {
		if job.Type == t {
			out = append(out, job)
		}
	}
	return out
}

type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func managerActor(f fixture) Actor {
	return Actor{UserID: f.managers[0].UserID, Role: models.RoleManager, ManagerID: uintPtr(f.managers[0].ID)}
}

func facilitatorActor(f fixture) Actor {
	return Actor{UserID: f.facilitator.UserID, Role: models.RoleFacilitator, FacilitatorID: uintPtr(f.facilitator.ID)}
}
