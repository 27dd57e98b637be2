package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/application/services"
	"github.com/bimakw/wallet-proxy/internal/domain/apperr"
)

// Error titles returned by the tokens endpoint
const (
	ErrTitleMissingParameters = "Missing required parameters"
	ErrTitleInvalidParameters = "Invalid parameters"
	ErrTitleUpstreamFailure   = "Failed to fetch token information"
)

// WalletHandler handles HTTP requests for wallet token views
type WalletHandler struct {
	service *services.WalletService
	logger  *zap.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(service *services.WalletService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the wallet routes
func (h *WalletHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tokens/{chain}/{address}", h.GetWalletTokens)
	// Requests missing the address still get a descriptive 400
	r.Get("/tokens/{chain}", h.GetWalletTokens)
	r.Get("/tokens/{chain}/", h.GetWalletTokens)
}

// GetWalletTokens handles GET /api/tokens/{chain}/{address}
func (h *WalletHandler) GetWalletTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chainID := chi.URLParam(r, "chain")
	address := chi.URLParam(r, "address")

	response, err := h.service.GetWalletView(ctx, chainID, address)
	if err != nil {
		var validationErr *apperr.ValidationError
		switch {
		case apperr.IsMissingParameter(err):
			respondError(w, http.StatusBadRequest, ErrTitleMissingParameters, apperr.Message(err))
		case errors.As(err, &validationErr):
			respondError(w, http.StatusBadRequest, ErrTitleInvalidParameters, validationErr.Message)
		default:
			h.logger.Error("Failed to get wallet tokens",
				zap.Error(err),
				zap.String("chain_id", chainID),
				zap.String("address", address),
			)
			respondError(w, apperr.HTTPStatus(err), ErrTitleUpstreamFailure, apperr.Message(err))
		}
		return
	}

	respondJSON(w, http.StatusOK, response)
}
