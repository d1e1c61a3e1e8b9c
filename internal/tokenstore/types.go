package tokenstore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TTL is how long an unfinished handshake stays redeemable.
const TTL = 20 * time.Minute

// PendingRequestToken is the server-side half of a request token issued by
// the provider. Secret never leaves the process.
type PendingRequestToken struct {
	ID        uuid.UUID
	Service   string
	Token     string
	Secret    string
	CreatedAt time.Time
}

// Repository is the durable layer of the store.
type Repository interface {
	Insert(ctx context.Context, t PendingRequestToken) error
	// FindActive returns the newest entry created strictly after notBefore,
	// or apperrors.ErrTokenNotFound.
	FindActive(ctx context.Context, service, token string, notBefore time.Time) (*PendingRequestToken, error)
	Delete(ctx context.Context, service, token string) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cache is the optional fast layer. Failures are never fatal to the store.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Sealer protects secrets at rest. utils.Encryptor satisfies it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}
