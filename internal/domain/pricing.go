package domain

import "strings"

// Pricing in USD per second of generated video.
const (
	FastRatePerSecond     = 0.15
	StandardRatePerSecond = 0.40
)

// IsFastModel reports whether the model name denotes a fast variant. The check
// is a case-insensitive substring match on "fast"; names that match nothing
// bill at the standard rate.
func IsFastModel(model string) bool {
	return strings.Contains(strings.ToLower(model), "fast")
}

// IsVeo3Model reports whether the model belongs to the Veo 3 family, the only
// family that supports 1080p output.
func IsVeo3Model(model string) bool {
	return strings.Contains(strings.ToLower(model), "veo-3")
}

// RatePerSecond returns the per-second price for the model.
func RatePerSecond(model string) float64 {
	if IsFastModel(model) {
		return FastRatePerSecond
	}
	return StandardRatePerSecond
}

// Cost computes the total price of one generation at the given duration.
func Cost(model string, durationSeconds int) float64 {
	return RatePerSecond(model) * float64(durationSeconds)
}
