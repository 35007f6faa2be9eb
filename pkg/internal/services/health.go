package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// DoStoreHealthCheck is run by the timed task scheduler.
func DoStoreHealthCheck(db Pinger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if err := db.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Database health check failed...")
		return
	}
	log.Debug().Dur("took", time.Since(start)).Msg("Database health check passed.")
}
