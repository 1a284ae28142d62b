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

type RedeemHandler struct {
	CodeService *service.CodeService
}

// ServeHTTP godoc
//
//	@Summary		Redeem Activation Code
//	@Description	Atomically transition an activation code from unused to used. Exactly one caller ever
//	@Description	succeeds per code; later attempts receive code_already_used with the original usage time.
//	@Description	A client whose request timed out should verify with GET /v1/codes/{code} rather than retry.
//	@Tags			Codes
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RedeemRequest	true	"Code to redeem"
//	@Success		200		{object}	RedeemResponse	"record plus remaining time at redemption"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description, used_at or expires_at"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Router			/v1/codes/redeem [post].
func (h *RedeemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	code, remaining, err := h.CodeService.Redeem(ctx, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "code is required",
			})
		case errors.Is(err, service.ErrCodeNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "Activation code not found",
			})
		case errors.Is(err, service.ErrCodeAlreadyUsed):
			resp := httpx.ErrorResponse{
				Error:            "code_already_used",
				ErrorDescription: "Activation code has already been redeemed",
			}
			if code.UsedAt != nil {
				resp.UsedAt = code.UsedAt.UTC().Format(time.RFC3339)
			}
			httpx.WriteJSON(w, http.StatusBadRequest, resp)
		case errors.Is(err, service.ErrCodeExpired):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "code_expired",
				ErrorDescription: "Activation code has expired",
				ExpiresAt:        code.ExpiresAt.UTC().Format(time.RFC3339),
			})
		default:
			log.Error("failed to redeem activation code", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorResponse{
				Error:            "storage_unavailable",
				ErrorDescription: "Storage is unavailable, verify the code before retrying",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, RedeemResponse{
		ID:          code.ID,
		Code:        code.Code,
		ProductInfo: code.ProductInfo,
		Metadata:    code.Metadata,
		ActivatedAt: *code.UsedAt,
		RemainingTimeAtIssuance: RemainingTimeResponse{
			Days:         remaining.Days,
			Hours:        remaining.Hours,
			Minutes:      remaining.Minutes,
			TotalSeconds: remaining.TotalSeconds,
		},
	})
}
