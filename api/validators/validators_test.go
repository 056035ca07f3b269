package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
)

type createBody struct {
	Customer string `json:"customer" validate:"required,max=10"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func decode(t *testing.T, body string) (createBody, *pkgerrors.Error) {
	t.Helper()
	var dest createBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	if err == nil {
		return dest, nil
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return dest, typed
}

func TestDecodeJSONBody(t *testing.T) {
	got, err := decode(t, `{"customer":"Ada","quantity":2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Customer != "Ada" || got.Quantity != 2 {
		t.Fatalf("unexpected decode %+v", got)
	}

	cases := []struct {
		name    string
		body    string
		message string
		field   string
	}{
		{name: "empty", body: ``, message: "request body is required"},
		{name: "malformed", body: `{"customer":`, message: "malformed JSON"},
		{name: "unknown field", body: `{"customer":"Ada","quantity":1,"total":9}`, message: "invalid request body", field: "total"},
		{name: "wrong type", body: `{"customer":"Ada","quantity":"two"}`, message: "invalid request body", field: "quantity"},
		{name: "trailing document", body: `{"customer":"Ada","quantity":1}{}`, message: "request body must be a single JSON document"},
		{name: "missing required", body: `{"quantity":1}`, message: "validation failed", field: "customer"},
		{name: "gt", body: `{"customer":"Ada","quantity":0}`, message: "validation failed", field: "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decode(t, tc.body)
			if err == nil {
				t.Fatalf("expected error")
			}
			if err.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %s", err.Code())
			}
			if err.Message() != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, err.Message())
			}
			if tc.field == "" {
				return
			}
			details, ok := err.Details().(map[string]string)
			if !ok {
				t.Fatalf("expected field details, got %#v", err.Details())
			}
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("expected details for %q, got %v", tc.field, details)
			}
		})
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	body := `{"customer":"` + strings.Repeat("a", maxJSONBody) + `"}`
	_, err := decode(t, body)
	if err == nil || !strings.Contains(err.Message(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	cases := map[string]struct {
		in   string
		max  int
		want string
	}{
		"trims":             {in: "  Ada  ", max: 10, want: "Ada"},
		"collapses":         {in: "Mama \t  Put\n", max: 0, want: "Mama Put"},
		"cuts on runes":     {in: "日本語テキスト", max: 3, want: "日本語"},
		"no trailing space": {in: "ab cd", max: 3, want: "ab"},
	}
	for name, tc := range cases {
		if got := SanitizeString(tc.in, tc.max); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", name, tc.want, got)
		}
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&bad=x&big=900", nil)
	if v, err := ParseQueryInt(req, "limit", 10, 1, 100); err != nil || v != 30 {
		t.Fatalf("expected 30, got %d (%v)", v, err)
	}
	if v, err := ParseQueryInt(req, "missing", 10, 1, 100); err != nil || v != 10 {
		t.Fatalf("expected default, got %d (%v)", v, err)
	}
	if _, err := ParseQueryInt(req, "bad", 10, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseQueryInt(req, "big", 10, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	router := chi.NewRouter()
	var got error
	router.Get("/invoices/{invoiceId}", func(w http.ResponseWriter, r *http.Request) {
		_, got = ParseUUIDParam(r, "invoiceId", "Invoice not found")
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/invoices/not-a-uuid", nil))
	if !pkgerrors.IsCode(got, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", got)
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/invoices/1b4e28ba-2fa1-11d2-883f-0016d3cca427", nil))
	if got != nil {
		t.Fatalf("unexpected error %v", got)
	}
}
