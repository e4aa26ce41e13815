package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newEngine(cfg *config.Config, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuthWithConfig(cfg)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	r.GET("/x", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "s3cret"}}
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signed(t, "other", jwt.MapClaims{"type": "access", "exp": exp}), http.StatusUnauthorized},
		{"refresh token", "Bearer " + signed(t, "s3cret", jwt.MapClaims{"type": "refresh", "exp": exp}), http.StatusUnauthorized},
		{"valid", "Bearer " + signed(t, "s3cret", jwt.MapClaims{"type": "access", "user_id": userID.String(), "role": "AGENT", "exp": exp}), http.StatusOK},
	}

	r := newEngine(cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("want %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.want == http.StatusOK && w.Body.String() != userID.String() {
				t.Fatalf("unexpected user id %q", w.Body.String())
			}
		})
	}
}

func TestRoleGuards(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "s3cret"}}
	exp := time.Now().Add(time.Hour).Unix()
	token := func(role string) string {
		return "Bearer " + signed(t, "s3cret", jwt.MapClaims{"type": "access", "user_id": uuid.NewString(), "role": role, "exp": exp})
	}

	tests := []struct {
		name  string
		guard gin.HandlerFunc
		role  string
		want  int
	}{
		{"agent on admin route", RequireAdmin(), "AGENT", http.StatusForbidden},
		{"admin on admin route", RequireAdmin(), "ADMIN", http.StatusOK},
		{"agent on agent route", RequireAgent(), "AGENT", http.StatusOK},
		{"admin on agent route", RequireAgent(), "ADMIN", http.StatusOK},
		{"unknown role", RequireAgent(), "PASSENGER", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(cfg, tt.guard)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", token(tt.role))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("want %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(logger.NewWithWriter(&buf, "info")))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("store unavailable"))
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("request id should be echoed, got %q", w.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), "req-123") || !strings.Contains(buf.String(), "HTTP Request") {
		t.Fatalf("unexpected log %q", buf.String())
	}

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if _, err := uuid.Parse(w.Header().Get(RequestIDHeader)); err != nil {
		t.Fatalf("expected a generated request id, got %q", w.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), "store unavailable") {
		t.Fatalf("error should be logged, got %q", buf.String())
	}
}
