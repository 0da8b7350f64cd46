package config

import "time"

type Config interface {
	EnvConfig
	HTTPConfig
	StoreConfig
	DevServerConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// HTTPConfig covers the outbound API client.
type HTTPConfig interface {
	GetAPIBaseURL() string
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

type StoreConfig interface {
	GetTokenStore() StoreKind
	GetTokenFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type DevServerConfig interface {
	GetDevServerPort() string
	GetDevServerSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type mainConfig struct {
	EnvVars
	HTTP
	Store
	DevServer
}

func New() Config {
	return mainConfig{}
}
