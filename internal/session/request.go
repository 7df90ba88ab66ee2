package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/fortuna/rinkscout/internal/parse"
	"github.com/fortuna/rinkscout/internal/scraper"
)

var ErrInvalidRequest = errors.New("invalid scrape request")

// Request starts a scrape of one league. Zero values fall back to the
// controller defaults.
type Request struct {
	LeagueURL   string `json:"league_url" validate:"required,url"`
	LeagueName  string `json:"league_name" validate:"omitempty,max=100"`
	Season      string `json:"season" validate:"omitempty,season"`
	DelaySec    int    `json:"delay" validate:"gte=0,lte=120"`
	MaxTeams    int    `json:"max_teams" validate:"gte=0"`
	BatchSize   int    `json:"batch_size" validate:"gte=0,lte=100"`
	FirstLeague bool   `json:"is_first_league"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("season", func(fl validator.FieldLevel) bool {
		return parse.IsSeason(fl.Field().String())
	})
	return v
}

func (c *Controller) validateRequest(ctx context.Context, req Request) error {
	if err := c.validate.StructCtx(ctx, req); err != nil {
		return errors.Mark(errors.Wrap(err, "validation failed"), ErrInvalidRequest)
	}
	return nil
}

// withDefaults fills the league name, season and pacing left unset.
func (c *Controller) withDefaults(req Request) Request {
	if req.LeagueName == "" {
		req.LeagueName = parse.LeagueName(req.LeagueURL)
	}
	if req.Season == "" {
		req.Season = c.defaultSeason
	}
	return req
}

func (c *Controller) scraperConfig(req Request) scraper.Config {
	cfg := c.components.Scraper
	if req.DelaySec > 0 {
		cfg.Delay = time.Duration(req.DelaySec) * time.Second
	}
	if req.BatchSize > 0 {
		cfg.BatchSize = req.BatchSize
	}
	if req.MaxTeams > 0 {
		cfg.MaxTeams = req.MaxTeams
	}
	return cfg
}
