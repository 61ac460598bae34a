package progress

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldStreak     = "streak"
	fieldLastSolved = "lastSolved"
)

var _ Store = &RedisStore{}

// RedisStore keeps the solved set in a redis set and the streak in a hash
type RedisStore struct {
	client *redis.Client
	prefix string

	// Now returns the current time, time.Now if nil
	Now func() time.Time
}

// NewRedisStore creates a store using keys under prefix
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "tsjudge:progress:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) solvedKey() string {
	return s.prefix + "solved"
}

func (s *RedisStore) metaKey() string {
	return s.prefix + "meta"
}

// IsSolved implements Store
func (s *RedisStore) IsSolved(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.solvedKey(), id).Result()
	if err != nil {
		return false, fmt.Errorf("progress: is solved: %w", err)
	}
	return ok, nil
}

// MarkSolved implements Store
func (s *RedisStore) MarkSolved(ctx context.Context, id string) error {
	added, err := s.client.SAdd(ctx, s.solvedKey(), id).Result()
	if err != nil {
		return fmt.Errorf("progress: mark solved: %w", err)
	}
	if added == 0 {
		return nil
	}

	meta, err := s.client.HGetAll(ctx, s.metaKey()).Result()
	if err != nil {
		return fmt.Errorf("progress: read streak: %w", err)
	}
	streak, _ := strconv.Atoi(meta[fieldStreak])
	today := now(s.Now)
	streak = nextStreak(streak, meta[fieldLastSolved], today)
	if err := s.client.HSet(ctx, s.metaKey(),
		fieldStreak, streak,
		fieldLastSolved, today.Format(DateLayout),
	).Err(); err != nil {
		return fmt.Errorf("progress: write streak: %w", err)
	}
	return nil
}

// MarkUnsolved implements Store
func (s *RedisStore) MarkUnsolved(ctx context.Context, id string) error {
	if err := s.client.SRem(ctx, s.solvedKey(), id).Err(); err != nil {
		return fmt.Errorf("progress: mark unsolved: %w", err)
	}
	return nil
}

// Stats implements Store
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var (
		members *redis.StringSliceCmd
		meta    *redis.MapStringStringCmd
	)
	if _, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		members = p.SMembers(ctx, s.solvedKey())
		meta = p.HGetAll(ctx, s.metaKey())
		return nil
	}); err != nil {
		return Stats{}, fmt.Errorf("progress: stats: %w", err)
	}
	ids := members.Val()
	if ids == nil {
		ids = []string{}
	}
	slices.Sort(ids)
	m := meta.Val()
	streak, _ := strconv.Atoi(m[fieldStreak])
	return Stats{
		Solved:     len(ids),
		Streak:     streak,
		LastSolved: m[fieldLastSolved],
		SolvedIDs:  ids,
	}, nil
}
