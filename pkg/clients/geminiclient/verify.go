package geminiclient

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
)

const verifyPrompt = `Analyze this volunteer check-in photo for a community kitchen (Dapur MBG).
1. Determine if a real human face is clearly visible.
2. Check for kitchen hygiene gear: Mask, Hairnet, or Apron.
3. Describe the environment briefly.
4. Return JSON.`

type photoJudgement struct {
	HasFace         bool   `json:"hasFace"`
	HasHygieneGear  bool   `json:"hasHygieneGear"`
	Environment     string `json:"environment"`
	GearDescription string `json:"gearDescription"`
}

// VerifyCheckInPhoto asks the model whether the check-in photo shows a real
// face and hygiene gear, and composes the verification note. Callers own the
// fallback policy: any error here must be substituted with a fail-open result
// so a service outage never blocks attendance.
func (c *Client) VerifyCheckInPhoto(ctx context.Context, jpeg []byte) (model.Verification, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(jpeg, "image/jpeg"),
			genai.NewPartFromText(verifyPrompt),
		}, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"hasFace":         {Type: genai.TypeBoolean},
				"hasHygieneGear":  {Type: genai.TypeBoolean},
				"environment":     {Type: genai.TypeString},
				"gearDescription": {Type: genai.TypeString},
			},
			Required: []string{"hasFace", "environment"},
		},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return model.Verification{}, fmt.Errorf("photo verification request failed: %w", err)
	}

	var judgement photoJudgement
	if err := json.Unmarshal([]byte(result.Text()), &judgement); err != nil {
		return model.Verification{}, fmt.Errorf("failed to parse photo verification response: %w", err)
	}

	return composeVerification(judgement), nil
}

func composeVerification(j photoJudgement) model.Verification {
	if !j.HasFace {
		return model.Verification{
			IsVerified: false,
			Note:       fmt.Sprintf("Warning: No clear face detected. Environment: %s", j.Environment),
		}
	}

	note := fmt.Sprintf("Verified: Face detected in %s.", j.Environment)
	if j.HasHygieneGear {
		gear := j.GearDescription
		if gear == "" {
			gear = "Gear detected"
		}
		note += fmt.Sprintf(" Hygiene Check: PASS (%s).", gear)
	} else {
		note += " Hygiene Check: No mask/apron detected."
	}

	return model.Verification{IsVerified: true, Note: note}
}
