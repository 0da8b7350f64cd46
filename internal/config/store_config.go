package config

import "strings"

// StoreKind selects the token store backend.
type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreRedis  StoreKind = "redis"
	StoreMemory StoreKind = "memory"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetTokenStore() StoreKind {
	switch kind := StoreKind(strings.ToLower(GetEnv("TOKEN_STORE", string(StoreFile)))); kind {
	case StoreRedis, StoreMemory:
		return kind
	default:
		return StoreFile
	}
}

func (Store) GetTokenFile() string {
	return GetEnv("TOKEN_FILE", "./data/session.json")
}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Store) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Store) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "storefront:")
}
