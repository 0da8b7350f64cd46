package config

import "strings"

type HTTP struct{}

var _ HTTPConfig = HTTP{}

// GetAPIBaseURL returns the backend base URL without a trailing slash (e.g. "http://localhost:8080")
func (HTTP) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv("API_URL", "http://localhost:8080"), "/")
}

// GetRateLimitRPS returns the client-side request rate limit. Zero disables limiting.
func (HTTP) GetRateLimitRPS() float64 {
	return GetEnvFloat("RATE_LIMIT_RPS", 0)
}

func (HTTP) GetRateLimitBurst() int {
	return GetEnvInt("RATE_LIMIT_BURST", 10)
}
