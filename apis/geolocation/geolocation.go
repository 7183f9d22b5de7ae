// Package geolocation determines the position of the current device.
//
// A lookup ends in a Position or in one of three failure categories:
// ErrDenied, ErrUnavailable or ErrTimeout.
package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"weather/config"
)

var (
	ErrDenied      = errors.New("geolocation denied")
	ErrUnavailable = errors.New("position unavailable")
	ErrTimeout     = errors.New("geolocation timed out")
)

type Position struct {
	Latitude  float64
	Longitude float64
}

type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// New picks a locator for the configuration: Disabled when geolocation is
// turned off, Static for fixed coordinates, otherwise an IP lookup.
func New(cfg config.Geolocation, log *slog.Logger) Locator {
	switch {
	case !cfg.Enabled:
		return Disabled{}
	case cfg.Latitude != nil && cfg.Longitude != nil:
		return Static{Position: Position{Latitude: *cfg.Latitude, Longitude: *cfg.Longitude}}
	default:
		return NewIP(cfg, log)
	}
}

// Disabled refuses every request, the same way a declined permission
// prompt does.
type Disabled struct{}

func (Disabled) Locate(context.Context) (Position, error) {
	return Position{}, ErrDenied
}

type Static struct {
	Position Position
}

func (s Static) Locate(context.Context) (Position, error) {
	return s.Position, nil
}

// IP resolves the public address of the device to an approximate position
// using an ip-api.com compatible endpoint.
type IP struct {
	http    *resty.Client
	url     string
	timeout time.Duration
	log     *slog.Logger
}

func NewIP(cfg config.Geolocation, log *slog.Logger) *IP {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &IP{
		http:    resty.New(),
		url:     cfg.URL,
		timeout: timeout,
		log:     log,
	}
}

func (g *IP) Locate(ctx context.Context) (Position, error) {
	type responseStruct struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "status,message,lat,lon").
		Get(g.url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Position{}, ErrTimeout
		}
		g.log.Warn("geolocation request failed", "err", err)
		return Position{}, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	if !response.IsSuccess() {
		return Position{}, fmt.Errorf("%w: status code: %d", ErrUnavailable, response.StatusCode())
	}

	var r responseStruct
	if err = json.Unmarshal(response.Body(), &r); err != nil {
		return Position{}, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	if r.Status != "success" {
		return Position{}, fmt.Errorf("%w: %s", ErrUnavailable, r.Message)
	}

	return Position{Latitude: r.Lat, Longitude: r.Lon}, nil
}
