package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/application/services"
)

// StatsHandler handles HTTP requests for cache statistics
type StatsHandler struct {
	service *services.StatsService
	logger  *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service *services.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger,
	}
}

// GetCacheStats handles GET /api/stats
func (h *StatsHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	response := h.service.GetCacheStats(r.Context())
	respondJSON(w, http.StatusOK, response)
}
