// Package publisher mirrors scrape activity onto Redis streams.
package publisher

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/progress"
)

const (
	ProgressStream = "scrape.progress"
	TeamsStream    = "scrape.teams"

	streamMaxLen   = 10000
	publishTimeout = 2 * time.Second
)

// RedisStreamPublisher appends progress events and finished teams to streams.
// It is both a progress.Observer and a result sink.
type RedisStreamPublisher struct {
	client *redis.Client
	log    *logging.Logger
}

func NewRedisStreamPublisher(client *redis.Client, log *logging.Logger) *RedisStreamPublisher {
	if log == nil {
		log = logging.Default()
	}
	return &RedisStreamPublisher{client: client, log: log.With("component", "publisher")}
}

// PublishProgress appends one event to the progress stream.
func (p *RedisStreamPublisher) PublishProgress(ctx context.Context, ev progress.Event) error {
	return p.publish(ctx, ProgressStream, ev, map[string]any{"phase": string(ev.Phase)})
}

// PublishTeam appends one finished team to the teams stream.
func (p *RedisStreamPublisher) PublishTeam(ctx context.Context, league string, team domain.TeamResult) error {
	return p.publish(ctx, TeamsStream, team, map[string]any{"league": league, "team_id": team.ID})
}

// OnProgress publishes ev. Failures are logged since observers cannot fail.
func (p *RedisStreamPublisher) OnProgress(ev progress.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	// Live team snapshots grow with every team and belong on the teams stream.
	ev.LiveTeams = nil
	if err := p.PublishProgress(ctx, ev); err != nil {
		p.log.Warn("progress publish failed", "phase", string(ev.Phase), "err", err)
	}
}

// SaveLeague publishes each team of a finished league run.
func (p *RedisStreamPublisher) SaveLeague(ctx context.Context, league string, teams []domain.TeamResult) error {
	for _, t := range teams {
		if err := p.PublishTeam(ctx, league, t); err != nil {
			return err
		}
	}
	p.log.Info("teams published", "league", league, "count", len(teams))
	return nil
}

func (p *RedisStreamPublisher) publish(ctx context.Context, stream string, payload any, extra map[string]any) error {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "encode %s payload", stream)
	}

	values := map[string]any{
		"data":      string(data),
		"timestamp": time.Now().Unix(),
	}
	for k, v := range extra {
		values[k] = v
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	return errors.Wrapf(err, "xadd %s", stream)
}

var _ progress.Observer = (*RedisStreamPublisher)(nil)
