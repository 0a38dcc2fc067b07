package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/workflow"
)

// locationWait bounds how long a one-shot attendance command waits for the
// location acquisition before rejecting the action
const locationWait = 10 * time.Second

// RunAttendance resolves a volunteer by name query and runs one clock-in or
// clock-out through the workflow. The query must match exactly one volunteer;
// an exact (case-insensitive) name match wins over substring matches.
func RunAttendance(
	ctx context.Context,
	wf *workflow.Workflow,
	logger *zap.Logger,
	query string,
	eventType model.EventType,
) (*workflow.Result, error) {
	volunteer, err := resolveVolunteer(wf, query)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting attendance capture",
		zap.String("volunteer", volunteer.Name),
		zap.String("type", string(eventType)))

	wf.Select(*volunteer)
	defer wf.Reset()

	waitCtx, cancel := context.WithTimeout(ctx, locationWait)
	defer cancel()
	if err := wf.WaitForLocation(waitCtx); err != nil {
		return nil, err
	}

	switch eventType {
	case model.ClockIn:
		return wf.ClockIn(ctx)
	case model.ClockOut:
		return wf.ClockOut(ctx)
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

func resolveVolunteer(wf *workflow.Workflow, query string) (*model.Volunteer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("volunteer name query is required")
	}

	matches := wf.FilterVolunteers(query)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no volunteer matches %q", query)
	}

	for i := range matches {
		if strings.EqualFold(matches[i].Name, query) {
			return &matches[i], nil
		}
	}

	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return nil, fmt.Errorf("query %q is ambiguous, matches: %s", query, strings.Join(names, ", "))
	}

	return &matches[0], nil
}
