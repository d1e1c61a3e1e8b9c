package middleware

import (
	"errors"
	"net/http"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/Gkemhcs/slidebox/internal/metrics"
	"github.com/Gkemhcs/slidebox/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionMiddleware decodes the session cookie on every request and stores
// the result under ContextKeySession. A cookie that fails verification is
// logged and replaced by an empty session; the request is never failed.
func SessionMiddleware(codec *session.Codec, m *metrics.Metrics, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := codec.DecodeRequest(c.Request)
		if err != nil {
			reason := "malformed"
			if errors.Is(err, apperrors.ErrInvalidSignature) {
				reason = "invalid_signature"
			}
			logger.WithFields(logrus.Fields{
				"request_id": c.GetString(ContextKeyRequestID),
				"path":       c.Request.URL.Path,
				"reason":     reason,
				"error":      err.Error(),
			}).Warn("Discarding unreadable session cookie")
			m.CookieRejected(reason)
			s = session.New()
		}
		c.Set(ContextKeySession, s)
		c.Next()
	}
}

// RequireCredentials redirects to target unless the session holds an access
// credential.
func RequireCredentials(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c).Credential(); !ok {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession returns the session decoded for this request, or an empty one.
func GetSession(c *gin.Context) session.Session {
	if v, ok := c.Get(ContextKeySession); ok {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.New()
}
