package geminiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeVerification_FaceWithGear(t *testing.T) {
	v := composeVerification(photoJudgement{
		HasFace:         true,
		HasHygieneGear:  true,
		Environment:     "kitchen prep area",
		GearDescription: "mask and apron",
	})

	assert.True(t, v.IsVerified)
	assert.Contains(t, v.Note, "Verified: Face detected in kitchen prep area.")
	assert.Contains(t, v.Note, "Hygiene Check: PASS (mask and apron).")
}

func TestComposeVerification_FaceWithoutGear(t *testing.T) {
	v := composeVerification(photoJudgement{
		HasFace:     true,
		Environment: "dining hall",
	})

	assert.True(t, v.IsVerified)
	assert.Contains(t, v.Note, "No mask/apron detected")
}

func TestComposeVerification_GearWithoutDescription(t *testing.T) {
	v := composeVerification(photoJudgement{
		HasFace:        true,
		HasHygieneGear: true,
		Environment:    "kitchen",
	})

	assert.Contains(t, v.Note, "PASS (Gear detected)")
}

func TestComposeVerification_NoFace(t *testing.T) {
	v := composeVerification(photoJudgement{
		HasFace:     false,
		Environment: "empty room",
	})

	assert.False(t, v.IsVerified)
	assert.Contains(t, v.Note, "Warning: No clear face detected")
	assert.Contains(t, v.Note, "empty room")
}
