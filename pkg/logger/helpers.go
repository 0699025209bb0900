package logger

// LogPage logs a completed fetch or scroll cycle.
func LogPage(subject string, cycle, batchSize, total int) {
	GetLogger().InfoWithFields("batch collected", map[string]interface{}{
		"subject":    subject,
		"cycle":      cycle,
		"batch_size": batchSize,
		"total":      total,
	})
}

// LogRateLimit logs a rate limit cooldown for an endpoint.
func LogRateLimit(endpoint string, waitSeconds int) {
	GetLogger().WarnWithFields("rate limit reached", map[string]interface{}{
		"endpoint":     endpoint,
		"wait_seconds": waitSeconds,
	})
}

// LogCollectionStop logs an early stop with partial results.
func LogCollectionStop(subject, reason string, collected int) {
	GetLogger().WarnWithFields("collection stopped early", map[string]interface{}{
		"subject":   subject,
		"reason":    reason,
		"collected": collected,
	})
}
