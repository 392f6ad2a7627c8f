package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func gzipBody(t *testing.T, payload string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(payload)); err != nil {
		t.Fatalf("compress payload: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	return &buf
}

func echoBodyServer() *echo.Echo {
	e := echo.New()
	e.Use(GzipRequestMiddleware())
	e.POST("/", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, string(body))
	})
	return e
}

func TestGzipRequestMiddlewareDecompresses(t *testing.T) {
	e := echoBodyServer()

	req := httptest.NewRequest(http.MethodPost, "/", gzipBody(t, `{"title":"ok"}`))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"title":"ok"}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestGzipRequestMiddlewarePassesPlainBody(t *testing.T) {
	e := echoBodyServer()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "plain" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestGzipRequestMiddlewareRejectsInvalidGzip(t *testing.T) {
	e := echoBodyServer()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip at all"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHasGzipEncoding(t *testing.T) {
	cases := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"gzip", true},
		{"GZIP", true},
		{"br, gzip", true},
		{"identity", false},
	}
	for _, tc := range cases {
		if got := hasGzipEncoding(tc.header); got != tc.want {
			t.Fatalf("hasGzipEncoding(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}
}
