package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/activault/internal/activation/service"
	"github.com/aussiebroadwan/activault/pkg/httpx"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

// CodesReadHandler serves the read-only views over activation codes: the
// operator listing, per-code detail, and the stats rollup.
type CodesReadHandler struct {
	CodeService *service.CodeService
}

// HandleList godoc
//
//	@Summary		List Activation Codes
//	@Description	Newest-first page of activation codes for operators.
//	@Tags			Codes
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (default 50, max 500)"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	ListResponse	"codes, limit, offset"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Router			/v1/codes [get].
func (h *CodesReadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	codes, err := h.CodeService.List(ctx, limit, offset)
	if err != nil {
		log.Error("failed to list activation codes", "err", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorResponse{
			Error:            "storage_unavailable",
			ErrorDescription: "Storage is unavailable, retry later",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ListResponse{
		Codes:  newCodeResponses(codes),
		Limit:  limit,
		Offset: offset,
	})
}

// HandleDetail godoc
//
//	@Summary		Activation Code Detail
//	@Description	Current state of a single activation code. Also the re-verification endpoint for
//	@Description	clients whose redemption request timed out ambiguously.
//	@Tags			Codes
//	@Produce		json
//	@Param			code	path		string	true	"Code value"
//	@Success		200		{object}	CodeResponse	"full record"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Router			/v1/codes/{code} [get].
func (h *CodesReadHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code, err := h.CodeService.GetByCode(ctx, r.PathValue("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrCodeNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "Activation code not found",
			})
		default:
			log.Error("failed to fetch activation code", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorResponse{
				Error:            "storage_unavailable",
				ErrorDescription: "Storage is unavailable, retry later",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newCodeResponse(code))
}

// HandleStats godoc
//
//	@Summary		Activation Code Statistics
//	@Description	Counts and percentage rates over the whole code table from a single consistent read.
//	@Tags			Codes
//	@Produce		json
//	@Success		200	{object}	StatsResponse	"total, used, unused, expired, active, usageRate, expirationRate"
//	@Failure		401	{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		503	{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Router			/v1/codes/stats [get].
func (h *CodesReadHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	stats, err := h.CodeService.Stats(ctx)
	if err != nil {
		log.Error("failed to compute code stats", "err", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorResponse{
			Error:            "storage_unavailable",
			ErrorDescription: "Storage is unavailable, retry later",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newStatsResponse(stats))
}
