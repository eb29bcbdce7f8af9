package generation

import (
	"strings"

	"kuma/internal/models"
)

const (
	DefaultItemCount = 10
	MinItemCount     = 5
	MaxItemCount     = 30

	DefaultDuration = 45
	MinDuration     = 20
	MaxDuration     = 180
)

// NormalizeRequest trims text fields, drops blank objectives and clamps the
// item count and duration into their accepted ranges. Out-of-range values are
// clamped, never rejected.
func NormalizeRequest(req models.GenerationRequest) models.GenerationRequest {
	req.Subject = strings.TrimSpace(req.Subject)
	req.GradeLevel = strings.TrimSpace(req.GradeLevel)
	req.Topic = strings.TrimSpace(req.Topic)
	req.ContentKind = models.ContentKind(strings.TrimSpace(string(req.ContentKind)))
	req.Objectives = trimAll(req.Objectives)
	req.ItemCount = clamp(req.ItemCount, DefaultItemCount, MinItemCount, MaxItemCount)
	req.DurationMinutes = clamp(req.DurationMinutes, DefaultDuration, MinDuration, MaxDuration)
	return req
}

func clamp(v, def, lo, hi int) int {
	if v == 0 {
		return def
	}
	return max(lo, min(v, hi))
}
