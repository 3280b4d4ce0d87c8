package services

// BelowThreshold reports whether a confidence score counts as low. A zero
// score means the collector sent no signal and is never low.
func BelowThreshold(confidence, minThreshold float64) bool {
	return confidence > 0 && confidence < minThreshold
}
