package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSalt = "a7c2f0a1-unpredictable-per-deployment"

func newTestCodec(t *testing.T, opts Options) *Codec {
	t.Helper()
	if opts.Salt == "" {
		opts.Salt = testSalt
	}
	c, err := NewCodec(opts)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return c
}

// cookiePair strips the attributes from a Set-Cookie value.
func cookiePair(setCookie string) string {
	pair, _, _ := strings.Cut(setCookie, ";")
	return pair
}

func TestNewCodec(t *testing.T) {
	_, err := NewCodec(Options{})
	assert.ErrorIs(t, err, ErrMissingSalt)

	_, err = NewCodec(Options{Salt: testSalt, Algorithm: "RS256"})
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	_, err = NewCodec(Options{Salt: testSalt, Algorithm: "md5"})
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	c, err := NewCodec(Options{Salt: testSalt})
	require.NoError(t, err)
	assert.Equal(t, "data", c.CookieName())
	assert.Equal(t, "/", c.opts.Path)
	assert.Equal(t, "HS256", c.opts.Algorithm)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			c := newTestCodec(t, Options{TTL: time.Hour, Algorithm: alg})
			in := Session{
				KeyCurrentUser: map[string]string{"id": "42", "name": "Ada"},
				KeyCredentials: map[string]any{"token": "tok2", "secret": "sec2"},
				"visits":       "3",
			}

			setCookie, err := c.Encode(in)
			require.NoError(t, err)

			out, err := c.Decode(cookiePair(setCookie))
			require.NoError(t, err)
			assert.Equal(t, "3", out.String("visits"))
			user, ok := out.Map(KeyCurrentUser)
			require.True(t, ok)
			assert.Equal(t, map[string]any{"id": "42", "name": "Ada"}, user)
			creds, ok := out.Map(KeyCredentials)
			require.True(t, ok)
			assert.Equal(t, "sec2", creds["secret"])
		})
	}
}

func TestDecodeReturnsEqualSession(t *testing.T) {
	c := newTestCodec(t, Options{TTL: time.Hour})
	in := Session{
		KeyCurrentUser: map[string]any{"id": "42", "name": "Ada", "meta": map[string]any{"depth": int64(-1)}},
		KeyCredentials: nil,
		"visits":       int64(3),
		"big":          int64(12345678901234567),
		"ratio":        0.5,
		"admin":        true,
		"tags":         []any{"a", int64(2), false},
		"raw":          []byte{0x00, 0xff},
		"empty":        map[string]any{},
	}

	setCookie, err := c.Encode(in)
	require.NoError(t, err)
	out, err := c.Decode(cookiePair(setCookie))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeNormalizesValueTypes(t *testing.T) {
	c := newTestCodec(t, Options{})
	setCookie, err := c.Encode(Session{
		"visits": 3,
		"user":   map[string]string{"id": "42"},
		"nested": Session{"k": "v"},
		"list":   []string{"a"},
	})
	require.NoError(t, err)
	out, err := c.Decode(cookiePair(setCookie))
	require.NoError(t, err)

	assert.Equal(t, Session{
		"visits": int64(3),
		"user":   map[string]any{"id": "42"},
		"nested": map[string]any{"k": "v"},
		"list":   []any{"a"},
	}, out)
}

func TestEncodeAttributes(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		contains []string
		absent   []string
	}{
		{
			name:     "defaults with ttl",
			opts:     Options{TTL: time.Hour},
			contains: []string{"data=", "|", "; expires=Fri, 01 Mar 2024 11:00:00 GMT", "; path=/"},
			absent:   []string{"domain="},
		},
		{
			name:     "session cookie without expiry",
			opts:     Options{TTL: 0, Domain: "slides.example.com", Path: "/app", CookieName: "sid"},
			contains: []string{"sid=", "; domain=slides.example.com", "; path=/app"},
			absent:   []string{"expires="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCookie, err := newTestCodec(t, tt.opts).Encode(Session{"k": "v"})
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, setCookie, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, setCookie, s)
			}
		})
	}
}

func TestEncodeNilUserWithoutTTLHasNoExpires(t *testing.T) {
	c := newTestCodec(t, Options{TTL: 0})
	setCookie, err := c.Encode(Session{KeyCurrentUser: nil})
	require.NoError(t, err)
	assert.NotContains(t, setCookie, "expires")

	out, err := c.Decode(cookiePair(setCookie))
	require.NoError(t, err)
	v, present := out[KeyCurrentUser]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestEncodeIsDeterministic(t *testing.T) {
	c := newTestCodec(t, Options{})
	s := Session{"b": "2", "a": "1", "c": map[string]any{"z": "26", "y": "25"}}
	first, err := c.Encode(s)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Encode(s)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDecodeEmptyOrAbsent(t *testing.T) {
	c := newTestCodec(t, Options{})

	for _, header := range []string{"", "  ", "theme=dark; lang=en", "database=x|y"} {
		s, err := c.Decode(header)
		require.NoError(t, err, header)
		assert.Empty(t, s)
	}
}

func TestDecodeFindsCookieAmongOthers(t *testing.T) {
	c := newTestCodec(t, Options{})
	setCookie, err := c.Encode(Session{"k": "v"})
	require.NoError(t, err)

	header := "theme=dark; " + cookiePair(setCookie) + "; lang=en"
	s, err := c.Decode(header)
	require.NoError(t, err)
	assert.Equal(t, "v", s.String("k"))
}

func TestDecodeMalformed(t *testing.T) {
	c := newTestCodec(t, Options{})
	_, err := c.Decode("data=bm90LXNpZ25lZA==")
	assert.ErrorIs(t, err, apperrors.ErrMalformedCookie)
	assert.True(t, apperrors.IsSessionError(err))
}

func TestDecodeRejectsTampering(t *testing.T) {
	c := newTestCodec(t, Options{})
	setCookie, err := c.Encode(Session{KeyCurrentUser: map[string]string{"id": "42", "name": "Ada"}})
	require.NoError(t, err)

	pair := cookiePair(setCookie)
	value := strings.TrimPrefix(pair, "data=")
	payload, sig, found := strings.Cut(value, "|")
	require.True(t, found)

	// flip every bit of every payload character in turn
	for i := 0; i < len(payload); i++ {
		for bit := 0; bit < 8; bit++ {
			b := []byte(payload)
			b[i] ^= 1 << bit
			_, err := c.decodeValue(string(b) + "|" + sig)
			require.ErrorIs(t, err, apperrors.ErrInvalidSignature, "position %d bit %d", i, bit)
		}
	}

	_, err = c.Decode("data=" + payload + "|" + sig + "x")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	_, err = c.Decode("data=" + payload + "|")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
}

func TestDecodeRejectsOtherSalt(t *testing.T) {
	a := newTestCodec(t, Options{})
	b := newTestCodec(t, Options{Salt: "another-deployment-salt"})

	setCookie, err := a.Encode(Session{"k": "v"})
	require.NoError(t, err)
	_, err = b.Decode(cookiePair(setCookie))
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
}

func TestDecodeRequest(t *testing.T) {
	c := newTestCodec(t, Options{})
	setCookie, err := c.Encode(Session{"k": "v"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/slides", nil)
	r.Header.Add("Cookie", "theme=dark")
	r.Header.Add("Cookie", cookiePair(setCookie))
	s, err := c.DecodeRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "v", s.String("k"))

	s, err = c.DecodeRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestSessionHelpers(t *testing.T) {
	s := Session{"name": "Ada", "n": 3, "m": map[string]any{"a": "b"}}
	assert.Equal(t, "Ada", s.String("name"))
	assert.Equal(t, "", s.String("n"))
	assert.Equal(t, "", s.String("missing"))

	_, ok := s.Map("name")
	assert.False(t, ok)
	m, ok := s.Map("m")
	assert.True(t, ok)
	assert.Equal(t, "b", m["a"])

	s.Clear(KeyCurrentUser, KeyCredentials)
	assert.Contains(t, s, KeyCurrentUser)
	assert.Nil(t, s[KeyCredentials])
}
