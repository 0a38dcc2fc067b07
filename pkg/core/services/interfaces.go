package services

import (
	"context"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
)

// OperationalAnalyzer produces a structured analysis of today's operations
type OperationalAnalyzer interface {
	AnalyzeOperations(ctx context.Context, table schedule.Table, todayClockIns []model.AttendanceRecord, totalVolunteers int) (model.Analysis, error)
}

// ReportGenerator produces a free-text daily operational report
type ReportGenerator interface {
	GenerateDailyReport(ctx context.Context, records []model.AttendanceRecord) (string, error)
}
