package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-commerce/pkg/errors"
	"go-commerce/pkg/logger"
)

const (
	// TraceIDHeader carries the trace id in and out of every request
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the gin context key holding the trace id
	TraceIDKey = "trace_id"
)

// probe paths are scraped constantly and would drown the request log
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// TraceID takes the caller's X-Trace-ID or mints one, and stores it on both
// the gin context and the request context so loggers and gRPC clients see it.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceIDContext(c.Request.Context(), traceID))

		c.Next()
	}
}

// ErrorHandler renders the last handler error as the JSON error envelope and
// turns panics into 500s.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.WithContext(c.Request.Context()).Error("panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, errors.ErrorResponse{
				Error: errors.ErrorBody{
					Code:    errors.CodeInternal,
					Message: "An internal error occurred",
				},
				TraceID: c.GetString(TraceIDKey),
			})
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		statusCode, body := errors.ToJSON(err, c.GetString(TraceIDKey))

		entry := log.WithContext(c.Request.Context())
		fields := []zap.Field{zap.Error(err), zap.Int("status", statusCode)}
		if statusCode >= http.StatusInternalServerError {
			entry.Error("request failed", fields...)
		} else {
			entry.Warn("request rejected", fields...)
		}

		c.Data(statusCode, "application/json", body)
	}
}

// RequestLogger writes one access line per request, skipping health and
// metrics probes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if quietPaths[path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}

		entry := log.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			entry.Warn("http request", fields...)
		default:
			entry.Info("http request", fields...)
		}
	}
}

// CORS answers preflights and sets the allow headers. An empty allowlist
// admits any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(allowed) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		default:
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+TraceIDHeader)
		c.Header("Access-Control-Expose-Headers", TraceIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
