package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/activault/internal/activation/service"
	"github.com/aussiebroadwan/activault/pkg/httpx"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

type GenerateHandler struct {
	CodeService *service.CodeService
}

// ServeHTTP godoc
//
//	@Summary		Generate Activation Code
//	@Description	Mint a new single-use activation code with an expiry horizon and opaque product payloads.
//	@Description	The code value is returned exactly once here and never reissued.
//	@Tags			Codes
//	@Accept			json
//	@Produce		json
//	@Param			request	body		GenerateRequest	true	"Generation parameters"
//	@Success		201		{object}	CodeResponse	"id, code, createdAt, expiresAt"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Router			/v1/codes [post].
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	code, err := h.CodeService.Generate(ctx, req.ExpirationDays, req.ProductInfo, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "expirationDays must be between 1 and 3650, payloads must be valid JSON",
			})
		case errors.Is(err, service.ErrCodeCollision):
			// Vanishingly rare; the client retries for a fresh value.
			httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "Generated code value collided, retry the request",
			})
		default:
			log.Error("failed to generate activation code", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorResponse{
				Error:            "storage_unavailable",
				ErrorDescription: "Storage is unavailable, retry later",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newCodeResponse(code))
}
