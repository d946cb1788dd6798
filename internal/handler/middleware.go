package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/catalog-api/backend/internal/logger"
	"github.com/catalog-api/backend/internal/metrics"
	"github.com/catalog-api/backend/internal/model"
	"github.com/catalog-api/backend/internal/ratelimit"
	"github.com/catalog-api/backend/internal/service"
)

const (
	authUserKey     = "auth_user"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"

	msgTooManyRequests = "Too many requests from this IP, please try again in an hour!"
)

// Protect admits the request only when the pipeline authenticates it with
// scheme and one of roles. The identity is then available via GetAuthUser.
func Protect(pipeline *service.Pipeline, scheme service.Scheme, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		decision := pipeline.Authenticate(c.Request, scheme, roles...)
		if !decision.Authenticated() {
			writeFail(c, decision.Reason.Status(), decision.Reason.Message(scheme))
			return
		}

		c.Set(authUserKey, decision.Identity)
		c.Next()
	}
}

func GetAuthUser(c *gin.Context) *model.User {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.User); ok {
			return user
		}
	}
	return nil
}

// CORSMiddleware allows the listed origins. A "*" entry allows any origin
// without credentials.
func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	allowAny := false
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAny = true
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			_, listed := originMap[origin]
			switch {
			case listed:
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
			case allowAny:
				c.Header("Access-Control-Allow-Origin", "*")
			}
			if listed || allowAny {
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Request-ID")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				c.Header("Access-Control-Expose-Headers", "X-Request-ID")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog logs one line per request and records request metrics.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.ObserveRequest(c.Request.Method, c.FullPath(), status, latency.Seconds())

		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"bytes", c.Writer.Size(),
			"remote", c.ClientIP(),
			"request_id", GetRequestID(c),
		)
	}
}

// SecurityHeaders sets the response headers browsers use to restrict how the
// API's responses may be embedded or sniffed.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", "default-src 'self';base-uri 'self';frame-ancestors 'self';object-src 'none'")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-XSS-Protection", "0")
		c.Next()
	}
}

// BodyLimit rejects bodies larger than limit bytes.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			writeFail(c, http.StatusRequestEntityTooLarge, "Request entity too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// RateLimit counts each request against the client IP. Limiter errors are
// logged and the request is let through.
func RateLimit(limiter ratelimit.Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if res.Limit > 0 {
			c.Header("RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("RateLimit-Remaining", strconv.Itoa(res.Remaining))
			c.Header("RateLimit-Reset", strconv.Itoa(int(res.ResetIn.Round(time.Second).Seconds())))
		}

		if !res.Allowed {
			metrics.RateLimitRejectedTotal.Inc()
			c.Header("Retry-After", strconv.Itoa(int(res.ResetIn.Round(time.Second).Seconds())))
			writeFail(c, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		c.Next()
	}
}
