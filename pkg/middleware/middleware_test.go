package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-commerce/pkg/errors"
	"go-commerce/pkg/logger"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("test", "error")
	router := gin.New()
	router.Use(TraceID())
	router.Use(ErrorHandler(log))
	return router
}

func TestTraceID(t *testing.T) {
	router := newRouter()
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetTraceID(c.Request.Context()))
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(TraceIDHeader, "trace-abc")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, "trace-abc", w.Header().Get(TraceIDHeader))
		assert.Equal(t, "trace-abc", w.Body.String())
	})

	t.Run("generates one when absent", func(t *testing.T) {
		w := httptest.NewRecorder()

		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.NotEmpty(t, w.Header().Get(TraceIDHeader))
		assert.Equal(t, w.Header().Get(TraceIDHeader), w.Body.String())
	})
}

func TestErrorHandler(t *testing.T) {
	router := newRouter()
	router.GET("/missing", func(c *gin.Context) {
		c.Error(errors.NewNotFound("order", "ord_1"))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("nil map write")
	})

	tests := []struct {
		path     string
		wantCode int
		wantErr  string
	}{
		{"/missing", http.StatusNotFound, errors.CodeNotFound},
		{"/panic", http.StatusInternalServerError, errors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()

			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantCode, w.Code)
			var resp errors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Error.Code)
			assert.Equal(t, w.Header().Get(TraceIDHeader), resp.TraceID)
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
		wantHeader string
	}{
		{"open preflight", nil, "https://any.example.com", http.MethodOptions, http.StatusNoContent, "*"},
		{"listed origin", []string{"https://shop.example.com/"}, "https://shop.example.com", http.MethodGet, http.StatusOK, "https://shop.example.com"},
		{"unlisted request passes without headers", []string{"https://shop.example.com"}, "https://evil.example.com", http.MethodGet, http.StatusOK, ""},
		{"unlisted preflight", []string{"https://shop.example.com"}, "https://evil.example.com", http.MethodOptions, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.allowed))
			router.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/orders", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
