package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerStampsRequestID(t *testing.T) {
	m := NewMiddleware()

	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q, want req_ prefix", seen)
	}
	if m.TotalRequests() != 1 {
		t.Errorf("TotalRequests() = %d, want 1", m.TotalRequests())
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("two generated ids collided")
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
