package oauth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every call to the provider.
const DefaultTimeout = 10 * time.Second

// TokenStore keeps request-token secrets between the first and last leg.
// tokenstore.Store satisfies it.
type TokenStore interface {
	Put(ctx context.Context, token, secret, service string) error
	Get(ctx context.Context, token, service string) (string, error)
	Delete(ctx context.Context, token, service string) error
}

// Request describes a signed call made with an access credential.
type Request struct {
	URL        string
	Method     string // GET when empty
	Credential AccessCredential
	Params     map[string]string
	// Protected adds the "Authorization: OAuth" header.
	Protected bool
	// RawStatus returns non-2xx responses to the caller instead of failing.
	RawStatus bool
}

// Response is the raw provider reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client runs the OAuth 1.0a three-legged flow against one provider.
type Client struct {
	provider       Provider
	consumerKey    string
	consumerSecret string
	callbackURL    string
	tokens         TokenStore
	httpClient     *http.Client
	logger         *logrus.Logger
	now            func() time.Time
	nonce          func() string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default client; its Timeout is kept as given.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the deadline of every provider call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// WithNonce replaces the nonce source.
func WithNonce(nonce func() string) ClientOption {
	return func(c *Client) { c.nonce = nonce }
}

// NewClient creates a Client for the given provider and consumer credentials.
func NewClient(provider Provider, consumerKey, consumerSecret, callbackURL string, tokens TokenStore, logger *logrus.Logger, opts ...ClientOption) *Client {
	c := &Client{
		provider:       provider,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		callbackURL:    callbackURL,
		tokens:         tokens,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		logger:         logger,
		now:            time.Now,
		nonce:          randomNonce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider this client talks to.
func (c *Client) Provider() Provider {
	return c.provider
}

func randomNonce() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("oauth: nonce: %v", err))
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 10)
}

// signedParams assembles the protocol parameters, merges extra and appends
// oauth_signature.
func (c *Client) signedParams(method, endpoint, token, tokenSecret string, extra map[string]string) map[string]string {
	params := map[string]string{
		"oauth_consumer_key":     c.consumerKey,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(c.now().Unix(), 10),
		"oauth_nonce":            c.nonce(),
		"oauth_version":          "1.0",
	}
	if token != "" {
		params["oauth_token"] = token
	} else if c.callbackURL != "" {
		params["oauth_callback"] = c.callbackURL
	}
	for k, v := range extra {
		params[k] = v
	}

	params["oauth_signature"] = Sign(method, endpoint, params, c.consumerSecret, tokenSecret)
	return params
}

func (c *Client) do(ctx context.Context, op, method, endpoint, token, tokenSecret string, extra map[string]string, protected bool) (*Response, error) {
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	payload := EncodeForm(c.signedParams(method, endpoint, token, tokenSecret, extra))

	var (
		req *http.Request
		err error
	)
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+payload, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(payload))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, apperrors.NewProtocolError(op, 0, nil, err)
	}
	if protected {
		req.Header.Set("Authorization", "OAuth")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewProtocolError(op, 0, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewProtocolError(op, resp.StatusCode, nil, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// extractCredentials reads oauth_token and oauth_token_secret from a form body.
func (c *Client) extractCredentials(op string, resp *Response) (AccessCredential, error) {
	values, err := ParseForm(string(resp.Body))
	if err != nil || resp.StatusCode != http.StatusOK || values["oauth_token"] == "" || values["oauth_token_secret"] == "" {
		c.logger.WithFields(logrus.Fields{
			"provider":    c.provider.Name,
			"op":          op,
			"status_code": resp.StatusCode,
		}).Error("Could not extract token/secret from provider response")
		return AccessCredential{}, apperrors.NewProtocolError(op, resp.StatusCode, resp.Body, err)
	}
	return AccessCredential{Token: values["oauth_token"], Secret: values["oauth_token_secret"]}, nil
}

func (c *Client) transition(state LoginState) *logrus.Entry {
	return c.logger.WithFields(logrus.Fields{
		"provider": c.provider.Name,
		"state":    state.String(),
	})
}

// GetAuthorizationURL obtains a request token, remembers its secret and
// returns the provider URL the browser must visit to grant consent.
func (c *Client) GetAuthorizationURL(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, "request_token", http.MethodGet, c.provider.RequestTokenURL, "", "", nil, false)
	if err != nil {
		return "", err
	}
	requestToken, err := c.extractCredentials("request_token", resp)
	if err != nil {
		return "", err
	}
	c.transition(StateRequestTokenObtained).Debug("Request token obtained")

	if err := c.tokens.Put(ctx, requestToken.Token, requestToken.Secret, c.provider.Name); err != nil {
		return "", fmt.Errorf("store request token: %w", err)
	}

	authURL := c.provider.AuthorizeURL +
		"?oauth_token=" + PercentEncode(requestToken.Token) +
		"&oauth_callback=" + PercentEncode(c.callbackURL)
	c.transition(StateAuthorizationURLIssued).Info("Authorization URL issued")
	return authURL, nil
}

// ExchangeForAccessToken trades an authorized request token and its verifier
// for an access credential, then fetches the user's profile with it.
func (c *Client) ExchangeForAccessToken(ctx context.Context, requestToken, verifier string) (AccessCredential, UserProfile, error) {
	requestToken = unquote(requestToken)
	verifier = unquote(verifier)

	secret, err := c.tokens.Get(ctx, requestToken, c.provider.Name)
	if errors.Is(err, apperrors.ErrTokenNotFound) {
		c.transition(StateUnauthenticated).Warn("Request token not found or expired")
		return AccessCredential{}, nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownToken, c.provider.Name)
	}
	if err != nil {
		return AccessCredential{}, nil, fmt.Errorf("load request token: %w", err)
	}

	resp, err := c.do(ctx, "access_token", http.MethodGet, c.provider.AccessTokenURL, requestToken, secret,
		map[string]string{"oauth_verifier": verifier}, false)
	if err != nil {
		return AccessCredential{}, nil, err
	}
	credential, err := c.extractCredentials("access_token", resp)
	if err != nil {
		return AccessCredential{}, nil, err
	}
	c.transition(StateAccessTokenExchanged).Debug("Access token exchanged")

	if err := c.tokens.Delete(ctx, requestToken, c.provider.Name); err != nil {
		c.logger.WithField("error", err.Error()).Warn("Could not delete redeemed request token")
	}

	profile, err := c.lookupProfile(ctx, credential)
	if err != nil {
		return AccessCredential{}, nil, err
	}
	c.transition(StateProfileFetched).WithField("user_id", profile[FieldID]).Info("User profile fetched")
	return credential, profile, nil
}

func (c *Client) lookupProfile(ctx context.Context, credential AccessCredential) (UserProfile, error) {
	resp, err := c.AuthenticatedRequest(ctx, Request{
		URL:        c.provider.ProfileURL,
		Credential: credential,
		Protected:  true,
	})
	if err != nil {
		return nil, err
	}
	profile, err := c.provider.buildProfile(resp.Body)
	if err != nil {
		return nil, apperrors.NewProtocolError("profile", resp.StatusCode, resp.Body, err)
	}
	return profile, nil
}

// AuthenticatedRequest makes a signed call on behalf of the user.
func (c *Client) AuthenticatedRequest(ctx context.Context, r Request) (*Response, error) {
	resp, err := c.do(ctx, "api", r.Method, r.URL, r.Credential.Token, r.Credential.Secret, r.Params, r.Protected)
	if err != nil {
		return nil, err
	}
	if !r.RawStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, apperrors.NewProtocolError("api", resp.StatusCode, resp.Body, nil)
	}
	return resp, nil
}

// unquote undoes percent-encoding applied by the browser; '+' is left alone.
func unquote(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
