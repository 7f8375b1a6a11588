package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

// ErrExportGenerateFailed indicates the workbook could not be written.
var ErrExportGenerateFailed = errors.New("failed to generate export file")

const activityLogSheet = "Activity Logs"

var activityLogColumns = []struct {
	title string
	width float64
}{
	{"ID", 8},
	{"Course", 32},
	{"Facilitator", 24},
	{"Week", 8},
	{"Week Start", 14},
	{"Week End", 14},
	{"Formative 1", 14},
	{"Formative 2", 14},
	{"Summative", 14},
	{"Moderation", 14},
	{"Intranet Sync", 14},
	{"Grade Book", 14},
	{"Completion %", 14},
	{"Submitted At", 20},
	{"Overdue", 10},
}

// ExportService renders activity logs as spreadsheets.
type ExportService interface {
	ExportActivityLogs(ctx context.Context, actor Actor, req dto.ActivityLogListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	trackers repository.ActivityTrackerRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(trackers repository.ActivityTrackerRepository, logger zerolog.Logger) ExportService {
	return &exportService{
		trackers: trackers,
		logger:   logger.With().Str("component", "export_service").Logger(),
		now:      time.Now,
	}
}

// ExportActivityLogs writes every log matching the filter to a single sheet. Paging fields are ignored.
func (s *exportService) ExportActivityLogs(ctx context.Context, actor Actor, req dto.ActivityLogListRequest) (*bytes.Buffer, string, error) {
	if !actor.IsManager() {
		return nil, "", ErrForbidden
	}

	now := s.now()
	filter := repository.ActivityTrackerFilter{Status: req.Status, Now: now}
	if req.FacilitatorID != 0 {
		filter.FacilitatorID = uintPtr(req.FacilitatorID)
	}
	if req.AllocationID != 0 {
		filter.AllocationID = uintPtr(req.AllocationID)
	}
	if req.WeekNumber != 0 {
		week := req.WeekNumber
		filter.WeekNumber = &week
	}

	records, _, err := s.trackers.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(activityLogSheet)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFailed, err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, column := range activityLogColumns {
		name := colName(i)
		_ = f.SetColWidth(activityLogSheet, name, name, column.width)
		_ = f.SetCellValue(activityLogSheet, cell(name, 1), column.title)
	}
	_ = f.SetCellStyle(activityLogSheet, "A1", cell(colName(len(activityLogColumns)-1), 1), headerStyle)

	for i, record := range records {
		view := dto.NewActivityLogResponse(record, now)
		submitted := ""
		if view.SubmittedAt != nil {
			submitted = view.SubmittedAt.UTC().Format(time.RFC3339)
		}
		overdue := "No"
		if view.IsOverdue {
			overdue = "Yes"
		}

		values := []interface{}{
			view.ID,
			view.CourseName,
			view.FacilitatorName,
			view.WeekNumber,
			view.WeekStartDate.UTC().Format(time.DateOnly),
			view.WeekEndDate.UTC().Format(time.DateOnly),
			view.FormativeOneGrading,
			view.FormativeTwoGrading,
			view.SummativeGrading,
			view.CourseModeration,
			view.IntranetSync,
			view.GradeBookStatus,
			view.CompletionPercentage,
			submitted,
			overdue,
		}
		row := i + 2
		for col, value := range values {
			_ = f.SetCellValue(activityLogSheet, cell(colName(col), row), value)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error().Err(err).Msg("failed to write activity log workbook")
		return nil, "", ErrExportGenerateFailed
	}

	s.logger.Info().Int("rows", len(records)).Uint("actor_id", actor.UserID).Msg("activity logs exported")
	return buf, fmt.Sprintf("activity_logs_%s.xlsx", now.UTC().Format("20060102")), nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
