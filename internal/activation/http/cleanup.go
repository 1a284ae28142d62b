package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/activault/internal/activation/service"
	"github.com/aussiebroadwan/activault/pkg/httpx"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

// CleanupHandler exposes the retention policies to operators, each with a
// non-destructive preview mode for confirming scope before deletion.
type CleanupHandler struct {
	RetentionService *service.RetentionService
}

// HandleStaleUnused godoc
//
//	@Summary		Sweep Stale Unused Codes
//	@Description	Delete (or preview) unused activation codes older than the given window, regardless
//	@Description	of their expiry horizon. minutesOld defaults to 5 and must be between 1 and 1440.
//	@Tags			Cleanup
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CleanupRequest	false	"minutesOld, preview"
//	@Success		200		{object}	CleanupResponse	"policy, preview, deletedCount, deletedCodes"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Router			/v1/cleanup/stale-unused [post].
func (h *CleanupHandler) HandleStaleUnused(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCleanupRequest(w, r)
	if !ok {
		return
	}

	policy, err := service.StaleUnusedPolicy(req.MinutesOld)
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "minutesOld must be between 1 and 1440",
		})
		return
	}

	h.runSweep(w, r, policy, req.Preview)
}

// HandleExpiredUnused godoc
//
//	@Summary		Sweep Expired Unused Codes
//	@Description	Delete (or preview) unredeemed codes whose expiry passed more than daysOld days ago.
//	@Description	daysOld defaults to 30 and must be between 1 and 3650. Redeemed codes are never touched.
//	@Tags			Cleanup
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CleanupRequest	false	"daysOld, preview"
//	@Success		200		{object}	CleanupResponse	"policy, preview, deletedCount, deletedCodes"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Router			/v1/cleanup/expired-unused [post].
func (h *CleanupHandler) HandleExpiredUnused(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCleanupRequest(w, r)
	if !ok {
		return
	}

	policy, err := service.ExpiredUnusedPolicy(req.DaysOld)
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "daysOld must be between 1 and 3650",
		})
		return
	}

	h.runSweep(w, r, policy, req.Preview)
}

func (h *CleanupHandler) runSweep(w http.ResponseWriter, r *http.Request, policy service.RetentionPolicy, preview bool) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var (
		result service.SweepResult
		err    error
	)
	if preview {
		result, err = h.RetentionService.Preview(ctx, policy)
	} else {
		result, err = h.RetentionService.Execute(ctx, policy)
	}
	if err != nil {
		log.Error("retention sweep failed", "policy", policy.Name, "err", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorResponse{
			Error:            "storage_unavailable",
			ErrorDescription: "Storage is unavailable, retry later",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newCleanupResponse(result, preview))
}

// decodeCleanupRequest tolerates an empty body so a bare POST means "run
// with defaults".
func decodeCleanupRequest(w http.ResponseWriter, r *http.Request) (CleanupRequest, bool) {
	var req CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return CleanupRequest{}, false
	}
	return req, true
}
