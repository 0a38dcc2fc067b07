package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
	"github.com/dapurmbg/kitchen-attendance/pkg/db"
)

// TargetPortions is the daily portion target for the Makan Bergizi Gratis
// program at this site
const TargetPortions = 1500

// DashboardResult bundles today's aggregates with the AI analysis panel
type DashboardResult struct {
	PresentToday    int
	LateToday       int
	TotalVolunteers int
	TargetPortions  int
	TodayRecords    []model.AttendanceRecord
	Analysis        model.Analysis
}

// neutralAnalysis is the fallback when the analyzer is unavailable
func neutralAnalysis() model.Analysis {
	return model.Analysis{
		Summary:           "AI Analysis unavailable currently.",
		AttendanceRate:    0,
		RoleBreakdown:     map[string]int{},
		PredictedPortions: 0,
		Anomalies:         []string{},
	}
}

// Dashboard computes today's attendance aggregates from the record store and
// asks the analyzer for the operational analysis. The aggregates never depend
// on the analyzer: an analyzer outage yields a neutral analysis, not an error.
func Dashboard(
	ctx context.Context,
	records db.RecordStore,
	volunteers db.VolunteerStore,
	analyzer OperationalAnalyzer,
	table schedule.Table,
	logger *zap.Logger,
	now time.Time,
) *DashboardResult {
	today := records.Today(now)

	result := &DashboardResult{
		PresentToday:    records.PresentToday(now),
		LateToday:       records.LateToday(now),
		TotalVolunteers: len(volunteers.Volunteers()),
		TargetPortions:  TargetPortions,
		TodayRecords:    today,
		Analysis:        neutralAnalysis(),
	}

	logger.Debug("Dashboard aggregates computed",
		zap.Int("present", result.PresentToday),
		zap.Int("late", result.LateToday),
		zap.Int("total_volunteers", result.TotalVolunteers))

	if analyzer == nil {
		return result
	}

	clockIns := make([]model.AttendanceRecord, 0, len(today))
	for _, r := range today {
		if r.Type == model.ClockIn {
			clockIns = append(clockIns, r)
		}
	}

	analysis, err := analyzer.AnalyzeOperations(ctx, table, clockIns, result.TotalVolunteers)
	if err != nil {
		logger.Warn("Operational analysis unavailable, using neutral fallback", zap.Error(err))
		return result
	}

	result.Analysis = analysis
	return result
}

// DailyReport generates the coordinator's free-text report over the full
// record log. A generator failure yields a fixed error string, never an error.
func DailyReport(
	ctx context.Context,
	records db.RecordStore,
	generator ReportGenerator,
	logger *zap.Logger,
) string {
	if generator == nil {
		return "Error generating report."
	}

	report, err := generator.GenerateDailyReport(ctx, records.Records())
	if err != nil {
		logger.Warn("Report generation failed", zap.Error(err))
		return "Error generating report."
	}
	return report
}
