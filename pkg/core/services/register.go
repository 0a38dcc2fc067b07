package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
	"github.com/dapurmbg/kitchen-attendance/pkg/db"
)

// RegisterVolunteer validates and adds a volunteer to the roster.
// A role that matches no scheduled shift is normalized to the general role.
func RegisterVolunteer(
	database db.VolunteerStore,
	table schedule.Table,
	logger *zap.Logger,
	name, phone, role string,
) (*model.Volunteer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	role = strings.TrimSpace(role)

	if name == "" {
		return nil, fmt.Errorf("volunteer name is required")
	}
	if phone == "" {
		return nil, fmt.Errorf("volunteer phone is required")
	}

	if role == "" || !table.HasRole(role) {
		logger.Debug("Unknown role, registering as general",
			zap.String("requested_role", role))
		role = schedule.GeneralRole
	}

	volunteer := model.Volunteer{
		ID:          uuid.New().String(),
		Name:        name,
		Phone:       phone,
		DefaultRole: role,
		JoinDate:    time.Now(),
	}

	if err := database.InsertVolunteer(volunteer); err != nil {
		return nil, fmt.Errorf("failed to register volunteer: %w", err)
	}

	logger.Info("Volunteer registered",
		zap.String("name", volunteer.Name),
		zap.String("role", volunteer.DefaultRole))

	return &volunteer, nil
}
