package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
	"github.com/aussiebroadwan/activault/internal/activation/store"
	"github.com/aussiebroadwan/activault/pkg/cryptox"
	"github.com/aussiebroadwan/activault/pkg/idx"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

var (
	ErrAPIKeyInvalid = errors.New("api key invalid")
	ErrAPIKeyExpired = errors.New("api key expired")
)

// DefaultAPIKeyTTL applies when a mint request carries no lifetime.
const DefaultAPIKeyTTL = 90 * 24 * time.Hour

const maxAPIKeyNameLen = 100

// APIKeyService mints and verifies operator API keys. The raw secret is
// returned exactly once at mint time; only its argon2id hash is stored.
type APIKeyService struct {
	Store store.Store

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *APIKeyService) clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Mint creates a new API key and returns the record plus the raw
// credential in "<id>.<secret>" form.
func (s *APIKeyService) Mint(ctx context.Context, name string, ttl time.Duration) (domain.APIKey, string, error) {
	log := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxAPIKeyNameLen {
		return domain.APIKey{}, "", ErrInvalidRequest
	}
	if ttl <= 0 {
		ttl = DefaultAPIKeyTTL
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate api key secret", slog.Any("error", err))
		return domain.APIKey{}, "", err
	}

	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		log.Error("failed to hash api key secret", slog.Any("error", err))
		return domain.APIKey{}, "", err
	}

	now := s.clock()
	key := domain.APIKey{
		ID:         idx.New().String(),
		Name:       name,
		SecretHash: hash,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	if err := s.Store.APIKeys().CreateAPIKey(ctx, key); err != nil {
		log.Error("failed to persist api key", slog.Any("error", err))
		return domain.APIKey{}, "", err
	}

	log.Info("api key minted",
		slog.String("key_id", key.ID),
		slog.String("name", key.Name),
		slog.Time("expires_at", key.ExpiresAt),
	)

	return key, key.ID + "." + secret, nil
}

// VerifyAPIKey checks a raw "<id>.<secret>" credential and returns the key
// ID as the caller identity. It satisfies the authentication middleware's
// verifier contract.
func (s *APIKeyService) VerifyAPIKey(ctx context.Context, raw string) (string, error) {
	log := slogx.FromContext(ctx)

	id, secret, ok := strings.Cut(raw, ".")
	if !ok || id == "" || secret == "" {
		return "", ErrAPIKeyInvalid
	}

	key, err := s.Store.APIKeys().GetAPIKeyByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrAPIKeyInvalid
		}
		log.Error("failed to fetch api key", slog.Any("error", err))
		return "", err
	}

	if key.Expired(s.clock()) {
		log.Warn("rejected expired api key", slog.String("key_id", key.ID))
		return "", ErrAPIKeyExpired
	}

	if err := cryptox.VerifySecret(secret, key.SecretHash); err != nil {
		log.Warn("rejected api key with bad secret", slog.String("key_id", key.ID))
		return "", ErrAPIKeyInvalid
	}

	return key.ID, nil
}

// PurgeExpired removes API keys whose expiry has passed.
func (s *APIKeyService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.Store.APIKeys().DeleteExpiredAPIKeys(ctx, s.clock())
}
