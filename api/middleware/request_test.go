package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

func TestRequestIDAdoptsOrMints(t *testing.T) {
	var seen string
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get(requestIDHeader)
	}))

	cases := []struct {
		name    string
		inbound string
		adopt   bool
	}{
		{name: "caller id", inbound: "req-123", adopt: true},
		{name: "missing", inbound: ""},
		{name: "too long", inbound: strings.Repeat("a", maxRequestIDLen+1)},
		{name: "whitespace", inbound: "req 123"},
		{name: "control chars", inbound: "req\x01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.inbound != "" {
				req.Header.Set(requestIDHeader, tc.inbound)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(requestIDHeader)
			if got != seen {
				t.Fatalf("handler saw %q, response carries %q", seen, got)
			}
			if tc.adopt && got != tc.inbound {
				t.Fatalf("expected %q to be adopted, got %q", tc.inbound, got)
			}
			if !tc.adopt && (got == tc.inbound || len(got) != 36) {
				t.Fatalf("expected a minted uuid, got %q", got)
			}
		})
	}
}

func TestRecovererWritesInternalEnvelope(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"INTERNAL_ERROR"`) || strings.Contains(rec.Body.String(), "nil map") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
