package middleware

// Keys under which the middlewares store values in the gin context.
const (
	ContextKeySession   = "session"
	ContextKeyRequestID = "request_id"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"
