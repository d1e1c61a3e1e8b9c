package connect

import (
	"context"
	"errors"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/Gkemhcs/slidebox/internal/metrics"
	"github.com/Gkemhcs/slidebox/internal/oauth"
	"github.com/sirupsen/logrus"
)

// OAuthClient is the part of oauth.Client the connect flow needs.
type OAuthClient interface {
	Provider() oauth.Provider
	GetAuthorizationURL(ctx context.Context) (string, error)
	ExchangeForAccessToken(ctx context.Context, requestToken, verifier string) (oauth.AccessCredential, oauth.UserProfile, error)
}

// ConnectService drives the login handshake and records its outcome.
type ConnectService struct {
	client  OAuthClient
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewConnectService creates a new ConnectService.
func NewConnectService(client OAuthClient, m *metrics.Metrics, logger *logrus.Logger) *ConnectService {
	return &ConnectService{
		client:  client,
		metrics: m,
		logger:  logger,
	}
}

// ProviderName is the name of the configured OAuth provider.
func (s *ConnectService) ProviderName() string {
	return s.client.Provider().Name
}

// StartLogin returns the provider URL the browser is sent to.
func (s *ConnectService) StartLogin(ctx context.Context) (string, error) {
	provider := s.ProviderName()
	url, err := s.client.GetAuthorizationURL(ctx)
	if err != nil {
		s.fail(provider, err, "Could not start login")
		return "", err
	}
	s.metrics.LoginStarted(provider)
	return url, nil
}

// CompleteLogin redeems the authorized request token for an access
// credential and the user's profile.
func (s *ConnectService) CompleteLogin(ctx context.Context, requestToken, verifier string) (oauth.AccessCredential, oauth.UserProfile, error) {
	provider := s.ProviderName()
	credential, profile, err := s.client.ExchangeForAccessToken(ctx, requestToken, verifier)
	if err != nil {
		s.fail(provider, err, "Could not complete login")
		return oauth.AccessCredential{}, nil, err
	}
	s.metrics.LoginCompleted(provider)
	s.logger.WithFields(logrus.Fields{
		"provider": provider,
		"user_id":  profile[oauth.FieldID],
	}).Info("User logged in")
	return credential, profile, nil
}

// RejectCallback records a provider callback that arrived without a request token.
func (s *ConnectService) RejectCallback() {
	provider := s.ProviderName()
	s.metrics.LoginFailed(provider, metrics.ReasonBadRequest)
	s.logger.WithFields(logrus.Fields{
		"provider": provider,
		"reason":   metrics.ReasonBadRequest,
	}).Warn("Callback without oauth_token")
}

func (s *ConnectService) fail(provider string, err error, msg string) {
	reason := failureReason(err)
	s.metrics.LoginFailed(provider, reason)
	entry := s.logger.WithFields(logrus.Fields{
		"provider": provider,
		"reason":   reason,
		"error":    err.Error(),
	})
	if reason == metrics.ReasonStore {
		entry.Error(msg)
		return
	}
	entry.Warn(msg)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnknownToken):
		return metrics.ReasonUnknownToken
	case apperrors.IsProtocolError(err):
		return metrics.ReasonProtocol
	default:
		return metrics.ReasonStore
	}
}

// toAPIError maps a login failure onto the response sent to the browser.
func toAPIError(err error) *apperrors.APIError {
	switch failureReason(err) {
	case metrics.ReasonUnknownToken:
		return apperrors.ErrLoginExpired
	case metrics.ReasonProtocol:
		return apperrors.ErrProviderFailure
	default:
		return apperrors.ErrInternalServer
	}
}
