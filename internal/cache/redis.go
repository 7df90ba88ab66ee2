// Package cache keeps league snapshots in Redis so a restarted service can
// serve the last results before its first scrape.
package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/platform/logging"
)

const (
	leagueKeyPrefix = "rinkscout:league:"
	indexKey        = "rinkscout:leagues"

	DefaultTTL = 7 * 24 * time.Hour
)

// Snapshot is the cached form of one league.
type Snapshot struct {
	League  string              `json:"league"`
	SavedAt time.Time           `json:"saved_at"`
	Teams   []domain.TeamResult `json:"teams"`
}

// RedisCache stores league snapshots with a TTL and indexes their names in a set.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration, log *logging.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return NewFromClient(client, ttl, log), nil
}

func NewFromClient(client *redis.Client, ttl time.Duration, log *logging.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logging.Default()
	}
	return &RedisCache{client: client, ttl: ttl, log: log.With("component", "cache")}
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client exposes the connection for the stream publisher.
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// LeagueKey is the Redis key of a league snapshot.
func LeagueKey(league string) string {
	return leagueKeyPrefix + league
}

// SaveLeague replaces the snapshot of league.
func (rc *RedisCache) SaveLeague(ctx context.Context, league string, teams []domain.TeamResult) error {
	payload, err := EncodeSnapshot(Snapshot{League: league, SavedAt: time.Now().UTC(), Teams: teams})
	if err != nil {
		return err
	}

	_, err = rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LeagueKey(league), payload, rc.ttl)
		pipe.SAdd(ctx, indexKey, league)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "cache league %s", league)
	}
	rc.log.Debug("league cached", "league", league, "teams", len(teams), "bytes", len(payload))
	return nil
}

// LoadAll returns every unexpired snapshot. Expired names are dropped from the index.
func (rc *RedisCache) LoadAll(ctx context.Context) (map[string][]domain.TeamResult, error) {
	leagues, err := rc.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list cached leagues")
	}

	out := make(map[string][]domain.TeamResult, len(leagues))
	for _, league := range leagues {
		raw, err := rc.client.Get(ctx, LeagueKey(league)).Bytes()
		if errors.Is(err, redis.Nil) {
			if err := rc.client.SRem(ctx, indexKey, league).Err(); err != nil {
				rc.log.Warn("cannot prune expired league", "league", league, "err", err)
			}
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read cached league %s", league)
		}

		snap, err := DecodeSnapshot(raw)
		if err != nil {
			rc.log.Warn("skipping unreadable snapshot", "league", league, "err", err)
			continue
		}
		out[league] = snap.Teams
	}
	return out, nil
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	payload, err := sonic.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	return payload, nil
}

func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var s Snapshot
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, errors.Wrap(err, "decode snapshot")
	}
	return s, nil
}
