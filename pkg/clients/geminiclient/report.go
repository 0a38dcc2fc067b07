package geminiclient

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
)

type reportLogLine struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Activity string `json:"activity"`
	Time     string `json:"time"`
	Note     string `json:"note,omitempty"`
}

// GenerateDailyReport asks the model for a free-text daily operational report
// over the full attendance log. Callers substitute a fixed error string on
// failure.
func (c *Client) GenerateDailyReport(ctx context.Context, records []model.AttendanceRecord) (string, error) {
	lines := make([]reportLogLine, 0, len(records))
	for _, r := range records {
		activity := r.Activity
		if activity == "" {
			activity = "General"
		}
		lines = append(lines, reportLogLine{
			Name:     r.VolunteerName,
			Type:     string(r.Type),
			Activity: activity,
			Time:     r.Timestamp.Format("2006-01-02 15:04:05"),
			Note:     r.VerificationNote,
		})
	}

	summary, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record summary: %w", err)
	}

	prompt := fmt.Sprintf(`You are the Coordinator for "Dapur Kalibata 2" (Program Makan Bergizi Gratis).
Analyze the following volunteer logs and provide a daily operational report.

Data:
%s

Please include:
1. Total volunteers present and breakdown by Activity.
2. Hygiene compliance summary.
3. Operational irregularities based on check-in times vs roles.
4. Motivating message.`, summary)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("report generation request failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "Could not generate report.", nil
	}
	return text, nil
}
