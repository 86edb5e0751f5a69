package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 最近批次保存在 list 中，每日各状态计数保存在 hash 中。
type RedisStore struct {
	rdb *redis.Client

	prefix string
	keep   int64
	// dayTTL 只作用于按天的计数 hash
	dayTTL time.Duration
}

type RedisOption func(*RedisStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithKeep(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.keep = int64(n)
		}
	}
}

func WithDayTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.dayTTL = d }
}

func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "domaincheck:stats",
		keep:   defaultKeep,
		dayTTL: 30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *RedisStore) Record(ctx context.Context, sum Summary) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	at := sum.FinishedAt
	if at.IsZero() {
		at = time.Now()
	}
	recent := s.key("recent")
	day := s.key("day", at.UTC().Format("20060102"))

	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, recent, payload)
	pipe.LTrim(ctx, recent, 0, s.keep-1)
	pipe.HIncrBy(ctx, day, "batches", 1)
	pipe.HIncrBy(ctx, day, "available", int64(sum.Available))
	pipe.HIncrBy(ctx, day, "taken", int64(sum.Taken))
	pipe.HIncrBy(ctx, day, "error", int64(sum.Error))
	if s.dayTTL > 0 {
		pipe.Expire(ctx, day, s.dayTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis stats record: %w", err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, n int) ([]Summary, error) {
	if n <= 0 || int64(n) > s.keep {
		n = int(s.keep)
	}
	raw, err := s.rdb.LRange(ctx, s.key("recent"), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis stats recent: %w", err)
	}
	out := make([]Summary, 0, len(raw))
	for _, item := range raw {
		var sum Summary
		if err := json.Unmarshal([]byte(item), &sum); err != nil {
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

// DayCounts 返回某天各状态的累计数。
func (s *RedisStore) DayCounts(ctx context.Context, day time.Time) (map[string]string, error) {
	return s.rdb.HGetAll(ctx, s.key("day", day.UTC().Format("20060102"))).Result()
}
