package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrMissingSalt is returned by NewCodec when no salt is configured.
	ErrMissingSalt = errors.New("session: cookie salt is required")
	// ErrUnsupportedAlgorithm is returned for non-HMAC digest names.
	ErrUnsupportedAlgorithm = errors.New("session: unsupported signing algorithm")
)

// Defaults applied by NewCodec.
const (
	DefaultTTL        = time.Hour
	DefaultPath       = "/"
	DefaultCookieName = "data"
	DefaultAlgorithm  = "HS256"
)

// base64 payloads must round-trip byte for byte, so trailing bits are checked
var payloadEncoding = base64.StdEncoding.Strict()

// Options configures a Codec. A zero TTL produces session cookies without an
// expires attribute; an empty Domain omits the attribute.
type Options struct {
	TTL        time.Duration
	Domain     string
	Path       string
	CookieName string
	Salt       string
	Algorithm  string
}

// Codec turns a Session into a signed Set-Cookie value and back. It holds no
// per-session state and is safe for concurrent use.
type Codec struct {
	opts   Options
	signer *signer
	enc    cbor.EncMode
	dec    cbor.DecMode
	now    func() time.Time
}

// NewCodec validates opts and derives the signing key from the salt.
func NewCodec(opts Options) (*Codec, error) {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Algorithm == "" {
		opts.Algorithm = DefaultAlgorithm
	}
	if opts.TTL < 0 {
		opts.TTL = 0
	}

	s, err := newSigner(opts.Algorithm, opts.Salt)
	if err != nil {
		return nil, err
	}
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("session: cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("session: cbor decoder: %w", err)
	}

	return &Codec{opts: opts, signer: s, enc: enc, dec: dec, now: time.Now}, nil
}

// CookieName is the name the codec reads and writes.
func (c *Codec) CookieName() string {
	return c.opts.CookieName
}

// Encode serializes s and returns the full Set-Cookie header value:
// name=<base64>|<signature>[; expires=..][; domain=..][; path=..]
func (c *Codec) Encode(s Session) (string, error) {
	if s == nil {
		s = New()
	}
	raw, err := c.enc.Marshal(map[string]any(s))
	if err != nil {
		return "", fmt.Errorf("session: encode: %w", err)
	}
	sig, err := c.signer.sign(raw)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}

	var b strings.Builder
	b.WriteString(c.opts.CookieName)
	b.WriteByte('=')
	b.WriteString(payloadEncoding.EncodeToString(raw))
	b.WriteByte('|')
	b.WriteString(sig)
	if c.opts.TTL > 0 {
		b.WriteString("; expires=")
		b.WriteString(c.now().Add(c.opts.TTL).UTC().Format(http.TimeFormat))
	}
	if c.opts.Domain != "" {
		b.WriteString("; domain=")
		b.WriteString(c.opts.Domain)
	}
	if c.opts.Path != "" {
		b.WriteString("; path=")
		b.WriteString(c.opts.Path)
	}
	return b.String(), nil
}

// Decode recovers the session from a Cookie request header. An empty header
// or one without our cookie yields an empty session and no error.
func (c *Codec) Decode(cookieHeader string) (Session, error) {
	value, ok := c.lookup(cookieHeader)
	if !ok {
		return New(), nil
	}
	return c.decodeValue(value)
}

// decodeValue verifies and deserializes a "<base64>|<signature>" cookie value.
func (c *Codec) decodeValue(value string) (Session, error) {
	payload, sig, found := strings.Cut(value, "|")
	if !found {
		return nil, fmt.Errorf("%w: cookie %q is not signed", apperrors.ErrMalformedCookie, c.opts.CookieName)
	}
	raw, err := payloadEncoding.DecodeString(payload)
	if err != nil {
		// an altered payload is indistinguishable from a forged one
		return nil, fmt.Errorf("%w: payload is not base64", apperrors.ErrInvalidSignature)
	}
	if err := c.signer.verify(raw, sig); err != nil {
		return nil, err
	}

	var out map[string]any
	if err := c.dec.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedCookie, err)
	}
	if out == nil {
		return New(), nil
	}
	return Session(out), nil
}

// DecodeRequest decodes the session carried by r.
func (c *Codec) DecodeRequest(r *http.Request) (Session, error) {
	return c.Decode(strings.Join(r.Header.Values("Cookie"), "; "))
}

// lookup finds our cookie among the "; "-separated pairs of a Cookie header.
// The first pair with a matching name wins.
func (c *Codec) lookup(header string) (string, bool) {
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == c.opts.CookieName {
			return value, true
		}
	}
	return "", false
}
