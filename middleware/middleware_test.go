package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/utils"
)

func TestLimiterSet(t *testing.T) {
	set := newLimiterSet(4) // burst 2, one token every 15s
	now := time.Unix(1700000000, 0)

	if !set.allow("a", now) || !set.allow("a", now) {
		t.Fatal("burst should be allowed")
	}
	if set.allow("a", now) {
		t.Fatal("third request in the same instant should be limited")
	}
	if !set.allow("b", now) {
		t.Fatal("keys are limited independently")
	}
	if !set.allow("a", now.Add(16*time.Second)) {
		t.Fatal("token should refill")
	}

	set.allow("c", now.Add(limiterIdle+time.Minute))
	set.mu.Lock()
	_, kept := set.limiters["b"]
	set.mu.Unlock()
	if kept {
		t.Error("idle limiter should be evicted")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(1))
	r.GET("/", func(ctx *gin.Context) { utils.Success(ctx, nil) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(ctx *gin.Context) { seen = ctx.GetString(utils.ContextRequestIDKey) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen != "abc-123" {
		t.Errorf("caller id not reused: %q", seen)
	}
}
