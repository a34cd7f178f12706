package geoip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestLocate_FallsBackPastInvalidCoordinates(t *testing.T) {
	t.Parallel()

	s1 := jsonServer(t, `{"lat":0,"lon":0,"query":"1.2.3.4"}`)
	defer s1.Close()
	s2 := jsonServer(t, `{"loc":"40.0,-73.0","ip":"9.9.9.9"}`)
	defer s2.Close()

	l := NewLocator([]Provider{
		NewHTTPProvider("first", s1.URL, s1.Client(), ParseIPAPI),
		NewHTTPProvider("second", s2.URL, s2.Client(), ParseIPInfo),
	}, discard(), nil)

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if loc.Lat != 40.0 || loc.Lon != -73.0 || loc.Address != "9.9.9.9" {
		t.Fatalf("loc = %+v", loc)
	}
}

func TestLocate_FirstProviderWinsAndStops(t *testing.T) {
	t.Parallel()

	s1 := jsonServer(t, `{"lat":51.5,"lon":-0.1,"query":"8.8.4.4"}`)
	defer s1.Close()

	secondCalled := false
	s2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondCalled = true
		_, _ = w.Write([]byte(`{"loc":"1.0,1.0","ip":"x"}`))
	}))
	defer s2.Close()

	l := NewLocator([]Provider{
		NewHTTPProvider("first", s1.URL, s1.Client(), ParseIPAPI),
		NewHTTPProvider("second", s2.URL, s2.Client(), ParseIPInfo),
	}, discard(), nil)

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if loc.Lat != 51.5 || loc.Address != "8.8.4.4" {
		t.Fatalf("loc = %+v", loc)
	}
	if secondCalled {
		t.Fatal("second provider should not have been tried")
	}
}

func TestLocate_AllTransportFailures(t *testing.T) {
	t.Parallel()

	// Closed servers: every Fetch fails at the transport layer.
	s1 := httptest.NewServer(http.NotFoundHandler())
	s1.Close()
	s2 := httptest.NewServer(http.NotFoundHandler())
	s2.Close()

	l := NewLocator([]Provider{
		NewHTTPProvider("first", s1.URL, nil, ParseIPAPI),
		NewHTTPProvider("second", s2.URL, nil, ParseIPInfo),
	}, discard(), nil)

	_, err := l.Locate(context.Background())
	if !errors.Is(err, ErrNoServiceAvailable) {
		t.Fatalf("err = %v, want ErrNoServiceAvailable", err)
	}
}

func TestLocate_HTTPErrorStatusTriesNext(t *testing.T) {
	t.Parallel()

	s1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer s1.Close()
	s2 := jsonServer(t, `{"loc":"40.0,-73.0","ip":"9.9.9.9"}`)
	defer s2.Close()

	l := NewLocator([]Provider{
		NewHTTPProvider("first", s1.URL, s1.Client(), ParseIPAPI),
		NewHTTPProvider("second", s2.URL, s2.Client(), ParseIPInfo),
	}, discard(), nil)

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if loc.Address != "9.9.9.9" {
		t.Fatalf("loc = %+v", loc)
	}
}

func TestLocate_MalformedBodyTriesNext(t *testing.T) {
	t.Parallel()

	s1 := jsonServer(t, `not json at all`)
	defer s1.Close()
	s2 := jsonServer(t, `{"lat":10.0,"lon":20.0,"query":"5.5.5.5"}`)
	defer s2.Close()

	l := NewLocator([]Provider{
		NewHTTPProvider("first", s1.URL, s1.Client(), ParseIPAPI),
		NewHTTPProvider("second", s2.URL, s2.Client(), ParseIPAPI),
	}, discard(), nil)

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if loc.Lat != 10.0 || loc.Lon != 20.0 {
		t.Fatalf("loc = %+v", loc)
	}
}
