package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/echoflaresat/geochron/config"
)

const (
	configKeyPrefix = "geochron:config:"
	usersKey        = "geochron:config:users"
)

// RedisStore keeps configurations as JSON values, one key per user, with a
// set indexing the known users.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps client. The client lifecycle is managed by the caller.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// DialRedis connects with cfg and pings. An empty URL returns a nil client.
func DialRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func configKey(userID string) string {
	return configKeyPrefix + userID
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Save(ctx context.Context, userID string, clocks []Clock) (UserConfig, error) {
	prev, found, err := s.Load(ctx, userID)
	if err != nil {
		return UserConfig{}, err
	}
	var p *UserConfig
	if found {
		p = &prev
	}
	cfg := upsert(p, userID, clocks, s.now().UTC())

	raw, err := json.Marshal(cfg)
	if err != nil {
		return UserConfig{}, fmt.Errorf("encode config: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, configKey(userID), raw, 0)
		pipe.SAdd(ctx, usersKey, userID)
		return nil
	})
	if err != nil {
		return UserConfig{}, fmt.Errorf("save config: %w", err)
	}
	return cfg, nil
}

func (s *RedisStore) Load(ctx context.Context, userID string) (UserConfig, bool, error) {
	raw, err := s.client.Get(ctx, configKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return UserConfig{}, false, nil
	}
	if err != nil {
		return UserConfig{}, false, fmt.Errorf("load config: %w", err)
	}
	var cfg UserConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return UserConfig{}, false, fmt.Errorf("decode config: %w", err)
	}
	return cfg, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, configKey(userID))
		pipe.SRem(ctx, usersKey, userID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete config: %w", err)
	}
	return del.Val() > 0, nil
}

func (s *RedisStore) List(ctx context.Context) ([]UserConfig, error) {
	users, err := s.client.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return []UserConfig{}, nil
	}

	keys := make([]string, len(users))
	for i, u := range users {
		keys[i] = configKey(u)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}

	out := make([]UserConfig, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// removed between SMEMBERS and MGET
			continue
		}
		var cfg UserConfig
		if err := json.Unmarshal([]byte(str), &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		out = append(out, cfg)
	}
	return out, nil
}
