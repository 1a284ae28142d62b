package http

import (
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
	"github.com/aussiebroadwan/activault/internal/activation/service"
)

// GenerateRequest is the body of POST /v1/codes.
type GenerateRequest struct {
	ExpirationDays int             `json:"expirationDays,omitempty"`
	ProductInfo    json.RawMessage `json:"productInfo,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// CodeResponse is the wire form of an activation code record.
type CodeResponse struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	IsUsed      bool            `json:"isUsed"`
	UsedAt      *time.Time      `json:"usedAt,omitempty"`
	ProductInfo json.RawMessage `json:"productInfo,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

func newCodeResponse(c domain.ActivationCode) CodeResponse {
	return CodeResponse{
		ID:          c.ID,
		Code:        c.Code,
		CreatedAt:   c.CreatedAt,
		ExpiresAt:   c.ExpiresAt,
		IsUsed:      c.IsUsed,
		UsedAt:      c.UsedAt,
		ProductInfo: c.ProductInfo,
		Metadata:    c.Metadata,
	}
}

func newCodeResponses(codes []domain.ActivationCode) []CodeResponse {
	out := make([]CodeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, newCodeResponse(c))
	}
	return out
}

// RedeemRequest is the body of POST /v1/codes/redeem.
type RedeemRequest struct {
	Code string `json:"code"`
}

// RemainingTimeResponse decomposes time-left-at-redemption for display.
type RemainingTimeResponse struct {
	Days         int   `json:"days"`
	Hours        int   `json:"hours"`
	Minutes      int   `json:"minutes"`
	TotalSeconds int64 `json:"totalSeconds"`
}

// RedeemResponse is the success body of POST /v1/codes/redeem.
type RedeemResponse struct {
	ID                      string                `json:"id"`
	Code                    string                `json:"code"`
	ProductInfo             json.RawMessage       `json:"productInfo,omitempty"`
	Metadata                json.RawMessage       `json:"metadata,omitempty"`
	ActivatedAt             time.Time             `json:"activatedAt"`
	RemainingTimeAtIssuance RemainingTimeResponse `json:"remainingTimeAtIssuance"`
}

// ListResponse is the body of GET /v1/codes.
type ListResponse struct {
	Codes  []CodeResponse `json:"codes"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// StatsResponse is the body of GET /v1/codes/stats.
type StatsResponse struct {
	Total          int64   `json:"total"`
	Used           int64   `json:"used"`
	Unused         int64   `json:"unused"`
	Expired        int64   `json:"expired"`
	Active         int64   `json:"active"`
	UsageRate      float64 `json:"usageRate"`
	ExpirationRate float64 `json:"expirationRate"`
}

func newStatsResponse(s service.Stats) StatsResponse {
	return StatsResponse{
		Total:          s.Total,
		Used:           s.Used,
		Unused:         s.Unused,
		Expired:        s.Expired,
		Active:         s.Active,
		UsageRate:      s.UsageRate,
		ExpirationRate: s.ExpirationRate,
	}
}

// CleanupRequest is the body of the POST /v1/cleanup/* endpoints. MinutesOld
// applies to stale-unused, DaysOld to expired-unused; zero means the
// policy's default window.
type CleanupRequest struct {
	MinutesOld int  `json:"minutesOld,omitempty"`
	DaysOld    int  `json:"daysOld,omitempty"`
	Preview    bool `json:"preview,omitempty"`
}

// CleanupResponse reports a sweep (or a preview of one).
type CleanupResponse struct {
	Policy       string         `json:"policy"`
	Preview      bool           `json:"preview"`
	DeletedCount int            `json:"deletedCount"`
	DeletedCodes []CodeResponse `json:"deletedCodes"`
}

func newCleanupResponse(result service.SweepResult, preview bool) CleanupResponse {
	return CleanupResponse{
		Policy:       result.Policy,
		Preview:      preview,
		DeletedCount: result.DeletedCount,
		DeletedCodes: newCodeResponses(result.Deleted),
	}
}

// APIKeyMintRequest is the body of POST /v1/apikeys. TTLHours of zero means
// the default key lifetime.
type APIKeyMintRequest struct {
	Name     string `json:"name"`
	TTLHours int    `json:"ttlHours,omitempty"`
}

// APIKeyMintResponse carries the raw credential; it is shown exactly once.
type APIKeyMintResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"apiKey"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HealthChecks reports per-dependency status for readiness probes.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is the body of the /livez and /readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
