package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/service"
	"github.com/aussiebroadwan/activault/pkg/httpx"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

type APIKeyMintHandler struct {
	APIKeyService *service.APIKeyService
}

// ServeHTTP godoc
//
//	@Summary		Mint API Key
//	@Description	Create a new API key for machine callers. The raw credential is returned exactly once
//	@Description	in this response; only its hash is stored. Bearer authentication only - an API key
//	@Description	cannot mint further keys.
//	@Tags			APIKeys
//	@Accept			json
//	@Produce		json
//	@Param			request	body		APIKeyMintRequest	true	"name, ttlHours"
//	@Success		201		{object}	APIKeyMintResponse	"id, name, apiKey, createdAt, expiresAt"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/apikeys [post].
func (h *APIKeyMintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req APIKeyMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	key, raw, err := h.APIKeyService.Mint(ctx, req.Name, time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "name is required and must be at most 100 characters",
			})
		default:
			log.Error("failed to mint api key", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorResponse{
				Error:            "storage_unavailable",
				ErrorDescription: "Storage is unavailable, retry later",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, APIKeyMintResponse{
		ID:        key.ID,
		Name:      key.Name,
		APIKey:    raw,
		CreatedAt: key.CreatedAt,
		ExpiresAt: key.ExpiresAt,
	})
}
