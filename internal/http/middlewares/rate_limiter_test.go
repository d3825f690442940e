package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/sol-arbitrage/internal/http/httputil"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	clock := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return clock }

	r := gin.New()
	r.Use(rl.RateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	var last *httptest.ResponseRecorder
	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
		return last.Code
	}

	for i := 0; i < 2; i++ {
		if code := hit("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d within burst: status %d", i, code)
		}
	}
	if code := hit("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("over burst: status %d", code)
	}
	var resp httputil.Response
	if err := json.Unmarshal(last.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Code != "RATE_LIMITED" {
		t.Fatalf("unexpected body %+v", resp)
	}
	if code := hit("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client must have its own bucket: status %d", code)
	}

	clock = clock.Add(time.Second)
	if code := hit("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("after refill: status %d", code)
	}
}
