package geocoding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"weather/config"
	"weather/manager"
)

// MinQueryLength is the shortest query that is sent to the API.
const MinQueryLength = 2

func New(cfg config.Geocoding, log *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	count := cfg.Count
	if count <= 0 {
		count = 5
	}

	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http:     client,
		url:      cfg.URL,
		language: cfg.Language,
		count:    count,
		limiter:  rate.NewLimiter(limit, burst),
		log:      log,
	}
}

type Client struct {
	http     *resty.Client
	url      string
	language string
	count    int
	limiter  *rate.Limiter
	log      *slog.Logger
}

// Search looks up places by name. Queries shorter than MinQueryLength are not
// sent and produce no results.
func (c *Client) Search(ctx context.Context, query string) ([]manager.Location, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, nil
	}

	params := map[string]string{
		"name":     query,
		"count":    strconv.Itoa(c.count),
		"language": c.language,
	}

	locations, err := c.processRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	c.log.Debug("geocoding search", "query", query, "results", len(locations))

	return locations, nil
}

// Reverse returns the nearest named place for the coordinates, or
// manager.ErrNotFound.
func (c *Client) Reverse(ctx context.Context, latitude, longitude float64) (manager.Location, error) {
	params := map[string]string{
		"latitude":  strconv.FormatFloat(latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(longitude, 'f', -1, 64),
		"count":     "1",
		"language":  c.language,
	}

	locations, err := c.processRequest(ctx, params)
	if err != nil {
		return manager.Location{}, fmt.Errorf("reverse %v,%v: %w", latitude, longitude, err)
	}

	if len(locations) == 0 {
		return manager.Location{}, manager.ErrNotFound
	}

	return locations[0], nil
}

func (c *Client) processRequest(ctx context.Context, params map[string]string) ([]manager.Location, error) {
	type responseStruct struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Admin1    string  `json:"admin1"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	request := c.http.R().SetContext(ctx)
	request.SetQueryParams(params)

	response, err := request.Get(c.url)
	if err != nil {
		return nil, err
	}

	if response.StatusCode() != 200 {
		buf := &bytes.Buffer{}

		if err = json.Indent(buf, response.Body(), "", "  "); err != nil {
			buf.Reset()
			buf.Write(response.Body())
		}

		return nil, fmt.Errorf("status code: %d\n%s", response.StatusCode(), buf.String())
	}

	var r responseStruct
	if err = json.Unmarshal(response.Body(), &r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	locations := make([]manager.Location, 0, len(r.Results))
	for _, result := range r.Results {
		locations = append(locations, manager.Location{
			Name:      result.Name,
			Country:   result.Country,
			Region:    result.Admin1,
			Latitude:  result.Latitude,
			Longitude: result.Longitude,
		})
	}

	return locations, nil
}
