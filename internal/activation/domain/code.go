package domain

import (
	"encoding/json"
	"time"
)

// ActivationCode is a single-use token that unlocks product access.
//
// Lifecycle: created unused -> read any number of times -> marked used
// exactly once -> deleted at most once by retention (from either state).
// Everything except IsUsed/UsedAt is immutable after creation, and once
// IsUsed flips the record is read-only except for deletion.
type ActivationCode struct {
	ID        string
	Code      string // unique upper-case token; never reused, even after deletion
	CreatedAt time.Time
	ExpiresAt time.Time
	IsUsed    bool
	UsedAt    *time.Time // set atomically with IsUsed

	// ProductInfo describes what the code unlocks (name/version/features).
	// Opaque to this service.
	ProductInfo json.RawMessage

	// Metadata is caller-defined bookkeeping (e.g. customer email).
	Metadata json.RawMessage
}

// Expired reports whether the code is past its expiration horizon.
// Expired-but-unused codes refuse redemption but are retained until the
// expired-unused retention policy purges them.
func (c ActivationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// RemainingTime is the time left until expiry at the moment of redemption,
// decomposed for display. Floored at zero.
type RemainingTime struct {
	Days         int
	Hours        int
	Minutes      int
	TotalSeconds int64
}

// RemainingUntil computes the remaining time between now and expiry.
func RemainingUntil(expiresAt, now time.Time) RemainingTime {
	d := expiresAt.Sub(now)
	if d < 0 {
		d = 0
	}

	total := int64(d.Seconds())
	return RemainingTime{
		Days:         int(total / 86400),
		Hours:        int(total % 86400 / 3600),
		Minutes:      int(total % 3600 / 60),
		TotalSeconds: total,
	}
}
