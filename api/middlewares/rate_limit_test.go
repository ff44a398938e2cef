package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// helper to reset the shared pools between tests
func resetLimiters() {
	apiPool = newVisitorPool(rate.Limit(20), 40)
	loginPool = newVisitorPool(rate.Every(2*time.Second), 5)
}

func makeTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return r
}

func TestRateLimitMiddlewareAllowsBurstThenLimits(t *testing.T) {
	resetLimiters()

	router := makeTestRouter(RateLimitMiddleware())

	// The burst size admits 40 immediate requests from one IP.
	for i := 0; i < 40; i++ {
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200 on request %d, got %d", i+1, w.Code)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 once the burst is spent, got %d", w.Code)
	}
}

func TestLoginRateLimitMiddlewareThrottlesAfterBurst(t *testing.T) {
	resetLimiters()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoginRateLimitMiddleware())
	r.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "login ok"})
	})

	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest(http.MethodPost, "/login", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200 on login attempt %d, got %d", i+1, w.Code)
		}
	}

	req, _ := http.NewRequest(http.MethodPost, "/login", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 once the login burst is spent, got %d", w.Code)
	}
}

func TestRateLimitPoolsAreIndependent(t *testing.T) {
	resetLimiters()

	// Drain the login pool completely.
	for i := 0; i < 6; i++ {
		loginPool.get("").Allow()
	}

	router := makeTestRouter(RateLimitMiddleware())
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected the general pool to be unaffected, got %d", w.Code)
	}
}
