package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetClientFromContext(r.Context())))
})

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"ops": "s3cret"})(okHandler)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
		body   string
	}{
		{"missing", "/api/agents", "", http.StatusUnauthorized, ""},
		{"wrong", "/api/agents", "Bearer nope", http.StatusUnauthorized, ""},
		{"bearer", "/api/agents", "Bearer s3cret", http.StatusOK, "ops"},
		{"bare", "/api/agents", "s3cret", http.StatusOK, "ops"},
		{"probe", "/health", "", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && rec.Body.String() != tc.body {
				t.Errorf("client = %q, want %q", rec.Body.String(), tc.body)
			}
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	h := APIKeyAuth(nil)(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(2, 0)
	defer rl.Close()
	h := RateLimitMiddleware(rl)(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
		req.RemoteAddr = "10.1.1.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// a different host gets its own bucket
	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.RemoteAddr = "10.1.1.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client limited: %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"archive": PingChecker(func(context.Context) error { return nil }),
		"vector":  PingChecker(func(context.Context) error { return errors.New("down") }),
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"down"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLoggingAndMetricsPassThrough(t *testing.T) {
	h := LoggingMiddleware(zap.NewNop().Sugar())(MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatusClass(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 404: "4xx", 503: "5xx", 42: "unknown"} {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %s", code, got)
		}
	}
}

func TestValidators(t *testing.T) {
	if _, err := ValidateAgentName("  \x00 "); !errors.Is(err, fraud.ErrValidation) {
		t.Errorf("blank name: %v", err)
	}
	if got, err := ValidateAgentName(" Demo\x00 Agent "); err != nil || got != "Demo Agent" {
		t.Errorf("name = %q, %v", got, err)
	}
	if _, err := ValidateAgentName(strings.Repeat("x", 101)); err == nil {
		t.Error("long name accepted")
	}

	ids := SplitAccountIDs(" ACC001, ,ACC002,")
	if len(ids) != 2 || ids[0] != "ACC001" || ids[1] != "ACC002" {
		t.Errorf("split = %v", ids)
	}
	if _, err := ValidateAccountIDs([]string{"ACC001", "bad id"}); !errors.Is(err, fraud.ErrValidation) {
		t.Errorf("bad id: %v", err)
	}

	if ValidateLimit(0, 20, 100) != 20 || ValidateLimit(500, 20, 100) != 100 || ValidateLimit(5, 20, 100) != 5 {
		t.Error("ValidateLimit")
	}
}
