package services

import (
	"context"
	"time"

	"github.com/bimakw/wallet-proxy/internal/infrastructure/cache"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/clock"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/stats"
)

// StatsService reports cache effectiveness and observed key cardinality
type StatsService struct {
	cache     *cache.TieredCache
	tracker   *stats.CardinalityTracker
	clock     clock.Clock
	startedAt time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(tiered *cache.TieredCache, tracker *stats.CardinalityTracker, clk clock.Clock) *StatsService {
	return &StatsService{
		cache:     tiered,
		tracker:   tracker,
		clock:     clk,
		startedAt: clk.Now(),
	}
}

// TierStatsDTO is the API representation of one cache tier
type TierStatsDTO struct {
	Name       string  `json:"name"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	Entries    *int    `json:"entries"` // Nil when the backend cannot count
}

// CacheStatsResponse is the API response for cache statistics
type CacheStatsResponse struct {
	Data CacheStatsDTO `json:"data"`
}

// CacheStatsDTO contains per-tier counters and distinct-key estimates
type CacheStatsDTO struct {
	Tiers         []TierStatsDTO    `json:"tiers"`
	Cardinality   stats.Cardinality `json:"cardinality"`
	UptimeSeconds int64             `json:"uptime_seconds"`
}

// GetCacheStats returns a snapshot of cache statistics
func (s *StatsService) GetCacheStats(ctx context.Context) *CacheStatsResponse {
	tierStats := s.cache.Stats()

	tiers := make([]TierStatsDTO, len(tierStats))
	for i, ts := range tierStats {
		dto := TierStatsDTO{
			Name:       ts.Name,
			TTLSeconds: ts.TTL.Seconds(),
			Hits:       ts.Hits,
			Misses:     ts.Misses,
		}
		if total := ts.Hits + ts.Misses; total > 0 {
			dto.HitRate = float64(ts.Hits) / float64(total)
		}
		if ts.Entries >= 0 {
			entries := ts.Entries
			dto.Entries = &entries
		}
		tiers[i] = dto
	}

	return &CacheStatsResponse{
		Data: CacheStatsDTO{
			Tiers:         tiers,
			Cardinality:   s.tracker.Estimate(),
			UptimeSeconds: int64(s.clock.Now().Sub(s.startedAt).Seconds()),
		},
	}
}
