package oauth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

const upperHex = "0123456789ABCDEF"

func unreserved(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// PercentEncode escapes every byte outside A-Za-z0-9-._~ (RFC 5849 section 3.6).
// Spaces become %20, never '+'.
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

// NormalizeParams builds the parameter string: encoded pairs sorted by key,
// then by value, joined with '&'.
func NormalizeParams(params map[string]string) string {
	pairs := make([][2]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, [2]string{PercentEncode(k), PercentEncode(v)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p[0] + "=" + p[1]
	}
	return strings.Join(parts, "&")
}

// BaseString is METHOD&enc(url)&enc(params).
func BaseString(method, baseURL string, params map[string]string) string {
	return strings.ToUpper(method) + "&" + PercentEncode(baseURL) + "&" + PercentEncode(NormalizeParams(params))
}

// SigningKey always carries the '&', even without a token secret.
func SigningKey(consumerSecret, tokenSecret string) string {
	return PercentEncode(consumerSecret) + "&" + PercentEncode(tokenSecret)
}

// Sign returns base64(HMAC-SHA1(key, base string)). oauth_signature must not
// be present in params.
func Sign(method, baseURL string, params map[string]string, consumerSecret, tokenSecret string) string {
	mac := hmac.New(sha1.New, []byte(SigningKey(consumerSecret, tokenSecret)))
	mac.Write([]byte(BaseString(method, baseURL, params)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// EncodeForm serializes params as an application/x-www-form-urlencoded body
// in normalized order.
func EncodeForm(params map[string]string) string {
	return NormalizeParams(params)
}

// ParseForm parses an application/x-www-form-urlencoded body, keeping the
// first value of repeated keys.
func ParseForm(body string) (map[string]string, error) {
	values, err := url.ParseQuery(strings.TrimSpace(body))
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}
