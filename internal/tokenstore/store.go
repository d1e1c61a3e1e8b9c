package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store maps request tokens to their secrets between the request-token and
// access-token legs. The durable repository is authoritative; the cache is a
// best-effort accelerator. Both layers are filtered by creation time, so an
// entry older than the TTL is not found even if it is still physically present.
type Store struct {
	repo   Repository
	cache  Cache
	sealer Sealer
	ttl    time.Duration
	now    func() time.Time
	logger *logrus.Logger
	purged func(int64)
}

// Option configures a Store.
type Option func(*Store)

// WithCache adds a fast layer in front of the repository.
func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithSealer encrypts secrets before they reach either layer.
func WithSealer(sealer Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTTL overrides the default 20 minute lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPurgeObserver is told how many rows each purge removed.
func WithPurgeObserver(fn func(int64)) Option {
	return func(s *Store) { s.purged = fn }
}

// NewStore creates a Store over the given durable repository.
func NewStore(repo Repository, logger *logrus.Logger, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		ttl:    TTL,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKey(service, token string) string {
	return fmt.Sprintf("oauth_%s_%s", service, token)
}

// Put records a freshly issued request token.
func (s *Store) Put(ctx context.Context, token, secret, service string) error {
	stored := secret
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(secret)
		if err != nil {
			return fmt.Errorf("seal secret: %w", err)
		}
		stored = sealed
	}

	entry := PendingRequestToken{
		ID:        uuid.New(),
		Service:   service,
		Token:     token,
		Secret:    stored,
		CreatedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return err
	}

	if s.cache != nil {
		value := strconv.FormatInt(entry.CreatedAt.Unix(), 10) + "|" + stored
		if err := s.cache.Set(ctx, cacheKey(service, token), value, s.ttl); err != nil {
			s.logger.WithFields(logrus.Fields{
				"service": service,
				"error":   err.Error(),
			}).Warn("Pending token cache write failed")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"service": service,
		"id":      entry.ID.String(),
	}).Debug("Stored pending request token")
	return nil
}

// Get returns the secret for a live request token or apperrors.ErrTokenNotFound.
func (s *Store) Get(ctx context.Context, token, service string) (string, error) {
	notBefore := s.now().Add(-s.ttl)

	if s.cache != nil {
		if stored, ok := s.fromCache(ctx, token, service, notBefore); ok {
			return s.open(stored)
		}
	}

	entry, err := s.repo.FindActive(ctx, service, token, notBefore)
	if err != nil {
		return "", err
	}
	return s.open(entry.Secret)
}

func (s *Store) fromCache(ctx context.Context, token, service string, notBefore time.Time) (string, bool) {
	value, ok, err := s.cache.Get(ctx, cacheKey(service, token))
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": service,
			"error":   err.Error(),
		}).Warn("Pending token cache read failed, falling back to durable store")
		return "", false
	}
	if !ok {
		return "", false
	}

	created, stored, found := strings.Cut(value, "|")
	if !found {
		return "", false
	}
	unix, err := strconv.ParseInt(created, 10, 64)
	if err != nil || unix <= notBefore.Unix() {
		return "", false
	}
	return stored, true
}

func (s *Store) open(stored string) (string, error) {
	if s.sealer == nil {
		return stored, nil
	}
	return s.sealer.Open(stored)
}

// Delete forgets a token once its handshake has completed.
func (s *Store) Delete(ctx context.Context, token, service string) error {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(service, token)); err != nil {
			s.logger.WithField("error", err.Error()).Warn("Pending token cache delete failed")
		}
	}
	return s.repo.Delete(ctx, service, token)
}

// Purge removes entries that can no longer be redeemed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	return s.repo.DeleteBefore(ctx, s.now().Add(-s.ttl))
}

// RunPurger calls Purge every interval until ctx is done.
func (s *Store) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Purge(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.WithField("error", err.Error()).Error("Purging expired pending tokens failed")
				continue
			}
			if s.purged != nil {
				s.purged(n)
			}
			if n > 0 {
				s.logger.WithField("purged", n).Info("Purged expired pending tokens")
			}
		}
	}
}
