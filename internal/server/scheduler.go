package server

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	oracleRefreshSchedule = "@every 5m"
	limiterSweepSchedule  = "@every 10m"
)

type scheduler struct {
	cron *cron.Cron
}

// StartScheduler runs idle-room eviction and the periodic housekeeping jobs.
func (s *Server) StartScheduler() error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.EvictionSchedule, s.evictIdleRooms); err != nil {
		return err
	}
	if _, err := c.AddFunc(oracleRefreshSchedule, func() {
		if err := s.oracle.Refresh(context.Background()); err != nil {
			log.Error().Err(err).Msg("word oracle refresh failed")
		}
	}); err != nil {
		return err
	}
	if _, err := c.AddFunc(limiterSweepSchedule, func() {
		if n := s.limiter.Sweep(); n > 0 {
			log.Debug().Int("visitors", n).Msg("rate limiter swept")
		}
	}); err != nil {
		return err
	}
	c.Start()
	s.scheduler = &scheduler{cron: c}
	log.Info().Str("eviction", s.cfg.EvictionSchedule).Msg("scheduler started")
	return nil
}

func (sc *scheduler) Stop() {
	ctx := sc.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}
