package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/rinkscout/internal/domain"
)

func TestSnapshotEncoding(t *testing.T) {
	teams := []domain.TeamResult{{ID: "7", Name: "Hawks", Players: []domain.Player{{RosterPlayer: domain.RosterPlayer{Name: "Alex A"}, PPG: 0.8}}}}

	raw, err := EncodeSnapshot(Snapshot{League: "NA3HL", Teams: teams})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"league":"NA3HL"`)

	snap, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, teams, snap.Teams)

	_, err = DecodeSnapshot([]byte("{"))
	assert.Error(t, err)
}

func TestLeagueKey(t *testing.T) {
	assert.Equal(t, "rinkscout:league:USPHL Premier", LeagueKey("USPHL Premier"))
}

func TestUnreachableRedisReportsErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	rc := NewFromClient(client, 0, nil)
	t.Cleanup(func() { _ = rc.Close() })
	ctx := context.Background()

	assert.Equal(t, DefaultTTL, rc.ttl)
	assert.Error(t, rc.SaveLeague(ctx, "NA3HL", nil))
	_, err := rc.LoadAll(ctx)
	assert.Error(t, err)
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url", time.Hour, nil)
	assert.Error(t, err)
}
