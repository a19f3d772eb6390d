package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORS(origins))
	router.GET("/status", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return router
}

func TestCORSPreflightAdvertisesServedMethodsOnly(t *testing.T) {
	router := newCORSRouter([]string{"*"})

	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set("Origin", "https://app.2fa.com")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected preflight status 204, got %d", rr.Code)
	}

	methods := rr.Header().Get("Access-Control-Allow-Methods")
	for _, verb := range []string{http.MethodPut, http.MethodDelete, http.MethodHead} {
		if strings.Contains(methods, verb) {
			t.Errorf("preflight advertises %s, which the API does not serve", verb)
		}
	}
	for _, verb := range []string{http.MethodGet, http.MethodPost, http.MethodPatch} {
		if !strings.Contains(methods, verb) {
			t.Errorf("preflight is missing %s", verb)
		}
	}

	if headers := rr.Header().Get("Access-Control-Allow-Headers"); strings.Contains(headers, TraceIDHeader) {
		t.Errorf("trace id is a response header and should not be in Allow-Headers: %q", headers)
	}
	if exposed := rr.Header().Get("Access-Control-Expose-Headers"); exposed != TraceIDHeader {
		t.Errorf("expected %s to be exposed, got %q", TraceIDHeader, exposed)
	}
}

func TestCORSRestrictsOrigins(t *testing.T) {
	router := newCORSRouter([]string{"https://app.2fa.com"})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "https://app.2fa.com")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.2fa.com" {
		t.Fatalf("expected allowed origin to be echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected Allow-Origin for unknown origin: %q", got)
	}
}
