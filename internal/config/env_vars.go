package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	databaseVar   = "DATABASE_URL"
	redisAddrVar  = "REDIS_ADDR"
	signingKeyVar = "SESSION_SIGNING_KEY"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Community Auth Core")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetDatabaseURL returns the Postgres connection string. Empty means the
// server runs with in-memory stores (development only).
func (EnvVars) GetDatabaseURL() string {
	return GetEnv(databaseVar, "")
}

// GetRedisAddr returns the Redis address for the session revocation list.
// Empty means an in-process revocation store is used (development only).
func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

func (EnvVars) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (EnvVars) GetRedisDB() int {
	db, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

// GetSessionSigningKey returns the HMAC key used to sign session tokens.
// The default exists for development only; deployments must set
// SESSION_SIGNING_KEY to a dedicated high-entropy value.
func (EnvVars) GetSessionSigningKey() []byte {
	return []byte(GetEnv(signingKeyVar, "dev-only-signing-key-not-for-production"))
}

// GetBootstrapAdminName and GetBootstrapAdminPassword seed the first
// super_admin account when no super_admin exists yet.
func (EnvVars) GetBootstrapAdminName() string {
	return GetEnv("BOOTSTRAP_ADMIN_NAME", "")
}

func (EnvVars) GetBootstrapAdminPassword() string {
	return GetEnv("BOOTSTRAP_ADMIN_PASSWORD", "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
