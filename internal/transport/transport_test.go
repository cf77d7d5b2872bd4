package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestDoJSONRoundTrip(t *testing.T) {
	var gotID, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(HeaderRequestID)
		gotType = r.Header.Get("Content-Type")
		var in struct{ Code string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]any{"echo": in.Code})
	}))
	defer srv.Close()

	c := New(Config{DNSCache: true})
	defer c.Close()

	var out struct{ Echo string }
	if err := DoJSON(context.Background(), c.Client, http.MethodPost, srv.URL, map[string]string{"code": "ABC"}, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Echo != "ABC" {
		t.Fatalf("expected echo ABC, got %q", out.Echo)
	}
	if _, err := uuid.Parse(gotID); err != nil {
		t.Fatalf("expected uuid request id, got %q", gotID)
	}
	if gotType != "application/json" {
		t.Fatalf("unexpected content type %q", gotType)
	}
}

func TestDoJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	c := New(Config{})
	defer c.Close()

	err := DoJSON(context.Background(), c.Client, http.MethodGet, srv.URL, nil, nil)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %v", err)
	}
	if string(se.Body) != `{"error":"slow down"}` {
		t.Fatalf("unexpected body %q", se.Body)
	}
}

func TestDoJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	c := New(Config{})
	defer c.Close()

	var out struct{}
	err := DoJSON(context.Background(), c.Client, http.MethodGet, srv.URL, nil, &out)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDoJSONNetworkErrorUnwrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{})
	defer c.Close()

	err := DoJSON(context.Background(), c.Client, http.MethodGet, url, nil, nil)
	if err == nil {
		t.Fatalf("expected a network error")
	}
	if errors.Is(err, ErrStatus) || errors.Is(err, ErrDecode) {
		t.Fatalf("network error must not look like a protocol error: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(Config{DNSCache: true})
	c.Close()
	c.Close()
}

func TestWithBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := New(Config{})
	defer c.Close()
	if err := DoJSON(context.Background(), c.Client, http.MethodPost, srv.URL, nil, nil, WithBearer("tok")); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if got != "Bearer tok" {
		t.Fatalf("unexpected Authorization %q", got)
	}
}
