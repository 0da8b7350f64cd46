package config

import (
	"fmt"
	"time"
)

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetDevServerPort() string {
	port := GetEnv("PORT", "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (DevServer) GetDevServerSecret() string {
	return GetEnv("DEV_SERVER_SECRET", "dev-secret-change-me")
}

func (DevServer) GetAccessTokenExpiry() time.Duration {
	return time.Duration(GetEnvInt("ACCESS_TOKEN_EXPIRY_SECONDS", 900)) * time.Second
}

func (DevServer) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}
