package geminiclient

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
)

type analysisContext struct {
	TotalRegistered int               `json:"totalRegistered"`
	PresentCount    int               `json:"presentCount"`
	AttendanceLog   []analysisLogLine `json:"attendanceLog"`
}

type analysisLogLine struct {
	Role string `json:"role"`
	Time string `json:"time"`
	Name string `json:"name"`
}

// AnalyzeOperations asks the model for a structured operational analysis of
// today's clock-ins. Callers substitute a neutral zero-value Analysis on error.
func (c *Client) AnalyzeOperations(
	ctx context.Context,
	table schedule.Table,
	todayClockIns []model.AttendanceRecord,
	totalVolunteers int,
) (model.Analysis, error) {
	analysisCtx := analysisContext{
		TotalRegistered: totalVolunteers,
		PresentCount:    len(todayClockIns),
		AttendanceLog:   make([]analysisLogLine, 0, len(todayClockIns)),
	}
	for _, r := range todayClockIns {
		analysisCtx.AttendanceLog = append(analysisCtx.AttendanceLog, analysisLogLine{
			Role: r.Activity,
			Time: r.Timestamp.Format("15:04:05"),
			Name: r.VolunteerName,
		})
	}

	ctxJSON, err := json.Marshal(analysisCtx)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("failed to marshal analysis context: %w", err)
	}

	scheduleLines := ""
	for _, role := range table.Roles() {
		window, _ := table.Lookup(role)
		scheduleLines += fmt.Sprintf("- %s: %s-%s\n", role, window.Start, window.End)
	}

	prompt := fmt.Sprintf(`Analyze current operations for Dapur Kalibata 2 MBG based on this JSON context: %s.

Roles & Schedules:
%s
Task:
1. Calculate role breakdown (count per role).
2. Predict portions (Assume 1 Cook = 300 portions, 1 Helper = 150 portions).
3. Identify anomalies (Who is late based on their role schedule? Anyone working wrong hours?).
4. Return JSON matching the schema.`, ctxJSON, scheduleLines)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary":           {Type: genai.TypeString},
				"attendanceRate":    {Type: genai.TypeNumber},
				"roleBreakdown":     {Type: genai.TypeObject},
				"predictedPortions": {Type: genai.TypeNumber},
				"anomalies":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"summary", "attendanceRate", "predictedPortions"},
		},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("operational analysis request failed: %w", err)
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(result.Text()), &analysis); err != nil {
		return model.Analysis{}, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	return analysis, nil
}
