package config

type Config interface {
	EnvConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetDatabaseURL() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSessionSigningKey() []byte
	GetBootstrapAdminName() string
	GetBootstrapAdminPassword() string
}

type mainConfig struct {
	EnvVars
	Security
}

func New() Config {
	return mainConfig{}
}
