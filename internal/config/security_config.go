package config

import "time"

type SecurityConfig interface {
	GetSessionTTL() time.Duration
	GetElevatedSessionTTL() time.Duration
	GetMaxSessionLifetime() time.Duration
	GetLockoutWindow() time.Duration
	GetMaxLoginAttempts() int
	GetHashIterations() int
	GetStoreTimeout() time.Duration
	GetFailureRetention() time.Duration
	GetAttemptRetention() time.Duration
	GetFailureSweepInterval() time.Duration
	GetAttemptSweepInterval() time.Duration
	GetSweepBatchSize() int
	GetAlertWindow() time.Duration
	GetAlertThreshold() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSessionTTL() time.Duration {
	return 30 * time.Minute // Standard sessions expire after 30 minutes of inactivity
}

func (Security) GetElevatedSessionTTL() time.Duration {
	return 24 * time.Hour // Administrative flows marked elevated run on a fixed 24h session
}

func (Security) GetMaxSessionLifetime() time.Duration {
	return 8 * time.Hour // Hard cap for sliding sessions, measured from first issuance
}

func (Security) GetLockoutWindow() time.Duration {
	return 15 * time.Minute
}

func (Security) GetMaxLoginAttempts() int {
	return 5
}

func (Security) GetHashIterations() int {
	return 210_000 // PBKDF2-SHA-256, OWASP-recommended order of magnitude
}

func (Security) GetStoreTimeout() time.Duration {
	return 3 * time.Second // Every durable-store call is bounded; timeouts fail closed
}

func (Security) GetFailureRetention() time.Duration {
	return 30 * 24 * time.Hour
}

func (Security) GetAttemptRetention() time.Duration {
	return 7 * 24 * time.Hour
}

func (Security) GetFailureSweepInterval() time.Duration {
	return 24 * time.Hour
}

func (Security) GetAttemptSweepInterval() time.Duration {
	return 6 * time.Hour
}

func (Security) GetSweepBatchSize() int {
	return 500
}

func (Security) GetAlertWindow() time.Duration {
	return time.Hour
}

func (Security) GetAlertThreshold() int {
	return 10
}
