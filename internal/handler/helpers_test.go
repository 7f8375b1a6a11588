package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

const testSecret = "handler-secret"

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

type staffFixture struct {
	manager     models.Manager
	facilitator models.Facilitator
	other       models.Facilitator
	offering    models.CourseOffering
}

func seedStaff(t *testing.T, db *gorm.DB) staffFixture {
	t.Helper()
	var f staffFixture

	managerUser := models.User{Email: "grace@example.com", PasswordHash: "x", FirstName: "Grace", LastName: "Hopper", Role: models.RoleManager, IsActive: true}
	require.NoError(t, db.Create(&managerUser).Error)
	f.manager = models.Manager{UserID: managerUser.ID, Department: "Academics", IsActive: true}
	require.NoError(t, db.Create(&f.manager).Error)

	for i, name := range []string{"Ada", "Alan"} {
		user := models.User{Email: strings.ToLower(name) + "@example.com", PasswordHash: "x", FirstName: name, LastName: "Example", Role: models.RoleFacilitator, IsActive: true}
		require.NoError(t, db.Create(&user).Error)
		facilitator := models.Facilitator{UserID: user.ID, Department: "Computing", IsActive: true}
		require.NoError(t, db.Create(&facilitator).Error)
		if i == 0 {
			f.facilitator = facilitator
		} else {
			f.other = facilitator
		}
	}

	module := models.Module{Code: "SE101", Name: "Software Engineering", IsActive: true}
	cohort := models.Cohort{Name: "Cohort 1", IsActive: true}
	class := models.Class{Code: "2024S", Name: "2024 September", IsActive: true}
	mode := models.Mode{Name: "online"}
	require.NoError(t, db.Create(&module).Error)
	require.NoError(t, db.Create(&cohort).Error)
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&mode).Error)

	f.offering = models.CourseOffering{
		ModuleID:      module.ID,
		FacilitatorID: f.facilitator.ID,
		CohortID:      cohort.ID,
		ClassID:       class.ID,
		ModeID:        mode.ID,
		CreatedBy:     f.manager.ID,
		Trimester:     "1",
		IntakePeriod:  models.IntakeHT1,
		StartDate:     time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, time.April, 8, 0, 0, 0, 0, time.UTC),
		MaxStudents:   30,
		Status:        models.OfferingStatusActive,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&f.offering).Error)
	return f
}

func managerToken(t *testing.T, f staffFixture) string {
	return signToken(t, jwt.MapClaims{
		"sub":        strconv.FormatUint(uint64(f.manager.UserID), 10),
		"role":       models.RoleManager,
		"manager_id": f.manager.ID,
	})
}

func facilitatorToken(t *testing.T, facilitator models.Facilitator) string {
	return signToken(t, jwt.MapClaims{
		"sub":            strconv.FormatUint(uint64(facilitator.UserID), 10),
		"role":           models.RoleFacilitator,
		"facilitator_id": facilitator.ID,
	})
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["iat"] = time.Now().Unix()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
