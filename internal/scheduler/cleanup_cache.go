package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/wealthdesk/wealthdesk/internal/clientdata"
)

// CleanupCacheJob evicts expired entries from the market data cache
type CleanupCacheJob struct {
	cache *clientdata.Repository
	log   zerolog.Logger
}

// NewCleanupCacheJob creates a new cache cleanup job
func NewCleanupCacheJob(cache *clientdata.Repository, log zerolog.Logger) *CleanupCacheJob {
	return &CleanupCacheJob{
		cache: cache,
		log:   log.With().Str("job", "cleanup_cache").Logger(),
	}
}

// Name returns the job name
func (j *CleanupCacheJob) Name() string {
	return "cleanup_cache"
}

// Run deletes all expired cache rows
func (j *CleanupCacheJob) Run() error {
	deleted, err := j.cache.DeleteAllExpired()
	if err != nil {
		return err
	}

	total := int64(0)
	for _, count := range deleted {
		total += count
	}
	if total > 0 {
		j.log.Info().Int64("deleted", total).Msg("Expired cache entries removed")
	}
	return nil
}
