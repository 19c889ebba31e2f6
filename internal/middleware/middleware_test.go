package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{"", "", errMissingAuthorization},
		{"Basic abc", "", errNotBearer},
		{"Bearer   ", "", errEmptyToken},
		{"Bearer abc.def", "abc.def", nil},
	}
	for _, tc := range cases {
		got, err := bearerToken(tc.header)
		if got != tc.want || !errors.Is(err, tc.err) {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tc.header, got, err, tc.want, tc.err)
		}
	}
}

func TestRequestLoggersReusesIncomingID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLoggers(zap.NewNop(), nil))
	app.Get("/", func(c *fiber.Ctx) error {
		if GetRequestDBLogger(c) == nil {
			t.Error("db logger missing")
		}
		return c.SendString(GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "req-42" {
		t.Fatalf("response request id = %q", got)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestSanitizeSensitiveData(t *testing.T) {
	got := sanitizeSensitiveData(`{"api_key": "secret", "channel":"app"}`)
	if got != `{"api_key": "***", "channel":"app"}` {
		t.Fatalf("got %s", got)
	}
}
