package geolocation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"weather/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewSelectsLocator(t *testing.T) {
	lat, lon := 59.93, 30.31

	if _, ok := New(config.Geolocation{}, discard).(Disabled); !ok {
		t.Error("disabled config should give Disabled")
	}
	if _, ok := New(config.Geolocation{Enabled: true, Latitude: &lat, Longitude: &lon}, discard).(Static); !ok {
		t.Error("fixed coordinates should give Static")
	}
	if _, ok := New(config.Geolocation{Enabled: true, URL: "http://localhost"}, discard).(*IP); !ok {
		t.Error("enabled config should give *IP")
	}
}

func TestDisabledAndStatic(t *testing.T) {
	if _, err := (Disabled{}).Locate(context.Background()); !errors.Is(err, ErrDenied) {
		t.Errorf("Disabled err = %v", err)
	}

	pos, err := Static{Position: Position{Latitude: 1, Longitude: 2}}.Locate(context.Background())
	if err != nil || pos.Latitude != 1 || pos.Longitude != 2 {
		t.Errorf("Static = %+v, %v", pos, err)
	}
}

func newIP(t *testing.T, timeout time.Duration, handler http.HandlerFunc) *IP {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewIP(config.Geolocation{Enabled: true, URL: srv.URL + "/json/", Timeout: timeout}, discard)
}

func TestIPLocate(t *testing.T) {
	g := newIP(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") == "" {
			t.Error("fields query parameter missing")
		}
		io.WriteString(w, `{"status":"success","lat":55.7558,"lon":37.6173}`)
	})

	pos, err := g.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if pos.Latitude != 55.7558 || pos.Longitude != 37.6173 {
		t.Errorf("pos = %+v", pos)
	}
}

func TestIPLocateFailures(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "lookup failed",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"status":"fail","message":"private range"}`)
			},
			want: ErrUnavailable,
		},
		{
			name:    "bad status",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: ErrUnavailable,
		},
		{
			name:    "garbage",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `<html>`)
			},
			want: ErrUnavailable,
		},
		{
			name:    "slow",
			timeout: 20 * time.Millisecond,
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			want: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newIP(t, tt.timeout, tt.handler)
			if _, err := g.Locate(context.Background()); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
