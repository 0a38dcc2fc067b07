package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
)

const exportSheet = "Attendance"

var exportHeaders = []string{
	"Record ID", "Volunteer", "Type", "Status", "Timestamp",
	"Activity", "Latitude", "Longitude", "Accuracy", "Verified", "Verification Note",
}

// ExportRecords writes the attendance log to an XLSX workbook, one row per
// record in the store's newest-first order
func ExportRecords(records []model.AttendanceRecord, path string, logger *zap.Logger) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, r := range records {
		row := i + 2
		values := []interface{}{
			r.ID,
			r.VolunteerName,
			string(r.Type),
			string(r.Status),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Activity,
			r.Location.Latitude,
			r.Location.Longitude,
			r.Location.Accuracy,
			r.IsVerified,
			r.VerificationNote,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write record %s: %w", r.ID, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	logger.Info("Attendance log exported",
		zap.String("path", path),
		zap.Int("records", len(records)))

	return nil
}
