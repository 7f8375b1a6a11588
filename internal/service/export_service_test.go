package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

func TestExportActivityLogsWritesWorkbook(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db, 1)

	submittedAt := time.Date(2024, time.January, 20, 10, 0, 0, 0, time.UTC)
	first := newTracker(f, 3, time.Date(2024, time.January, 21, 0, 0, 0, 0, time.UTC))
	first.SubmittedAt = &submittedAt
	second := newTracker(f, 4, time.Date(2024, time.January, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	svc := NewExportService(repository.NewActivityTrackerRepository(db), testLogger())
	svc.(*exportService).now = fixedClock(summaryNow)

	_, _, err := svc.ExportActivityLogs(context.Background(), facilitatorActor(f), dto.ActivityLogListRequest{})
	require.ErrorIs(t, err, ErrForbidden)

	buf, filename, err := svc.ExportActivityLogs(context.Background(), managerActor(f), dto.ActivityLogListRequest{})
	require.NoError(t, err)
	require.Equal(t, "activity_logs_20240320.xlsx", filename)

	book, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(activityLogSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Week", rows[0][3])
	require.Equal(t, "4", rows[1][3])
	require.Equal(t, "Yes", rows[1][14])
	require.Equal(t, "3", rows[2][3])
	require.Equal(t, "No", rows[2][14])
	require.Equal(t, "SE101 Software Engineering", rows[2][1])
}
