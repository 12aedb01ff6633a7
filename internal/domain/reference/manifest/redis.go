package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := strings.TrimSuffix(cfg.Redis.Prefix, ":")
	if prefix == "" {
		prefix = "exam-analyzer:refs"
	}
	return &redisStore{client: client, prefix: prefix + ":"}, nil
}

func (s *redisStore) key(examType string, index int) string {
	return s.prefix + examType + ":" + strconv.Itoa(index)
}

func (s *redisStore) Record(ctx context.Context, rec Record) error {
	if rec.ExamType == "" {
		return fmt.Errorf("exam type required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// reference images are never evicted, so neither are their records
	return s.client.Set(ctx, s.key(rec.ExamType, rec.Index), data, 0).Err()
}

func (s *redisStore) Get(ctx context.Context, examType string, index int) (Record, error) {
	raw, err := s.client.Get(ctx, s.key(examType, index)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *redisStore) keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		res, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, res...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (s *redisStore) List(ctx context.Context) ([]Record, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []Record{}, nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err == nil {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var bytes int64
	for _, rec := range recs {
		bytes += rec.Size
	}
	return map[string]any{
		"type":   DriverRedis,
		"total":  len(recs),
		"bytes":  bytes,
		"prefix": strings.TrimSuffix(s.prefix, ":"),
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
