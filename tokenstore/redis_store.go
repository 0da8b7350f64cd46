package tokenstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const sessionKey = "session"

// RedisStore keeps the tokens in a Redis hash with the fields accessToken and refreshToken.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store on an existing client. keyPrefix namespaces the hash key.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    keyPrefix + sessionKey,
	}
}

func (s *RedisStore) Get(ctx context.Context) (*TokenPair, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore Get] HGETALL")
	}
	p := persisted{
		AccessToken:  fields[AccessTokenKey],
		RefreshToken: fields[RefreshTokenKey],
	}
	if p.AccessToken == "" && p.RefreshToken == "" {
		return nil, ErrNotFound
	}
	return p.pair(), nil
}

// Set replaces both fields in one transaction so readers never see a mixed pair.
func (s *RedisStore) Set(ctx context.Context, pair TokenPair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, AccessTokenKey, pair.AccessToken, RefreshTokenKey, pair.RefreshToken)
		return nil
	})
	return errors.Wrap(err, "[RedisStore Set] MULTI")
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return errors.Wrap(s.client.Del(ctx, s.key).Err(), "[RedisStore Clear] DEL")
}
