package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	datesKey  = "menucache:dates"
	dayPrefix = "menucache:date:"
)

// RedisStore keeps one hash per date, field per menu URL, plus a set of
// the dates present so purges need no key scan.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisStore{Client: client, TTL: ttl}, nil
}

func dayKey(date string) string {
	return dayPrefix + date
}

func (s *RedisStore) Close() {
	s.Client.Close()
}

func (s *RedisStore) Get(ctx context.Context, url, date string) (string, bool, error) {
	payload, err := s.Client.HGet(ctx, dayKey(date), url).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

func (s *RedisStore) Set(ctx context.Context, url, date, payload string) error {
	if !json.Valid([]byte(payload)) {
		return ErrInvalidPayload
	}
	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, dayKey(date), url, payload)
	if s.TTL > 0 {
		pipe.Expire(ctx, dayKey(date), s.TTL)
	}
	pipe.SAdd(ctx, datesKey, date)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) PurgeOlderThan(ctx context.Context, date string) (int64, error) {
	dates, err := s.Client.SMembers(ctx, datesKey).Result()
	if err != nil {
		return 0, err
	}
	var purged int64
	for _, d := range dates {
		if d >= date {
			continue
		}
		n, err := s.Client.HLen(ctx, dayKey(d)).Result()
		if err != nil {
			return purged, err
		}
		if err := s.Client.Del(ctx, dayKey(d)).Err(); err != nil {
			return purged, err
		}
		if err := s.Client.SRem(ctx, datesKey, d).Err(); err != nil {
			return purged, err
		}
		purged += n
	}
	return purged, nil
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	dates, err := s.Client.SMembers(ctx, datesKey).Result()
	if err != nil {
		return err
	}
	keys := []string{datesKey}
	for _, d := range dates {
		keys = append(keys, dayKey(d))
	}
	return s.Client.Del(ctx, keys...).Err()
}

func (s *RedisStore) Stats(ctx context.Context, today string) (Stats, error) {
	stats := Stats{Backend: "redis", Location: s.Client.Options().Addr}
	dates, err := s.Client.SMembers(ctx, datesKey).Result()
	if err != nil {
		return stats, err
	}
	for _, d := range dates {
		n, err := s.Client.HLen(ctx, dayKey(d)).Result()
		if err != nil {
			return stats, err
		}
		stats.TotalEntries += n
		if d == today {
			stats.TodayEntries = n
		}
	}
	return stats, nil
}
