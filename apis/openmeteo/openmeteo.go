package openmeteo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"weather/config"
	"weather/manager"
)

const apiName = "open-meteo.com"

const (
	currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,rain,showers,snowfall," +
		"weather_code,cloud_cover,pressure_msl,wind_speed_10m,wind_direction_10m"
	hourlyFields = "temperature_2m,relative_humidity_2m,precipitation_probability,precipitation,weather_code,wind_speed_10m"
	dailyFields  = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max"
)

const (
	timeLayout = "2006-01-02T15:04"
	dateLayout = "2006-01-02"
)

// FetchError reports a forecast request that failed in transport or came
// back with a non-success status.
type FetchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", apiName, e.Err)
	}

	return fmt.Sprintf("%s: status code: %d\n%s", apiName, e.StatusCode, e.Body)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func New(cfg config.Weather, log *slog.Logger) *Client {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http:     client,
		url:      cfg.URL,
		timezone: cfg.Timezone,
		log:      log,
	}
}

type Client struct {
	http     *resty.Client
	url      string
	timezone string
	log      *slog.Logger
}

func (c *Client) Get(ctx context.Context, location manager.Location) (manager.Forecast, error) {
	params := url.Values{}

	params.Set("latitude", strconv.FormatFloat(location.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(location.Longitude, 'f', -1, 64))
	params.Set("current", currentFields)
	params.Set("hourly", hourlyFields)
	params.Set("daily", dailyFields)
	params.Set("timezone", c.timezone)

	body, err := c.processRequest(ctx, params)
	if err != nil {
		return manager.Forecast{}, err
	}

	var r result
	if err = json.Unmarshal(body, &r); err != nil {
		return manager.Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}

	forecast, err := r.forecast()
	if err != nil {
		return manager.Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}

	c.log.Debug("forecast fetched", "location", location.Name,
		"hourly", len(forecast.Hourly), "daily", len(forecast.Daily))

	return forecast, nil
}

func (c *Client) processRequest(ctx context.Context, params url.Values) ([]byte, error) {
	request := c.http.R().SetContext(ctx)

	request.SetQueryParamsFromValues(params)

	response, err := request.Get(c.url)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	if !response.IsSuccess() {
		buf := &bytes.Buffer{}

		if err = json.Indent(buf, response.Body(), "", "  "); err != nil {
			buf.Reset()
			buf.Write(response.Body())
		}

		return nil, &FetchError{StatusCode: response.StatusCode(), Body: buf.String()}
	}

	return response.Body(), nil
}

type result struct {
	Timezone             string `json:"timezone"`
	TimezoneAbbreviation string `json:"timezone_abbreviation"`
	UTCOffsetSeconds     int    `json:"utc_offset_seconds"`
	Current              struct {
		Time                string  `json:"time"`
		Temperature         float64 `json:"temperature_2m"`
		Humidity            float64 `json:"relative_humidity_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		Precipitation       float64 `json:"precipitation"`
		Rain                float64 `json:"rain"`
		Showers             float64 `json:"showers"`
		Snowfall            float64 `json:"snowfall"`
		WeatherCode         int     `json:"weather_code"`
		CloudCover          float64 `json:"cloud_cover"`
		Pressure            float64 `json:"pressure_msl"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		WindDirection       float64 `json:"wind_direction_10m"`
	} `json:"current"`
	Hourly struct {
		Time                     []string   `json:"time"`
		Temperature              []float64  `json:"temperature_2m"`
		Humidity                 []float64  `json:"relative_humidity_2m"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		Precipitation            []float64  `json:"precipitation"`
		WeatherCode              []int      `json:"weather_code"`
		WindSpeed                []float64  `json:"wind_speed_10m"`
	} `json:"hourly"`
	Daily struct {
		Time                     []string   `json:"time"`
		WeatherCode              []int      `json:"weather_code"`
		TemperatureMax           []float64  `json:"temperature_2m_max"`
		TemperatureMin           []float64  `json:"temperature_2m_min"`
		PrecipitationSum         []float64  `json:"precipitation_sum"`
		PrecipitationProbability []*float64 `json:"precipitation_probability_max"`
		WindSpeedMax             []float64  `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// forecast zips the parallel hourly and daily arrays into rows. Rows follow
// the time array; a shorter value array leaves the missing values zero.
func (r result) forecast() (manager.Forecast, error) {
	zone := time.FixedZone(r.TimezoneAbbreviation, r.UTCOffsetSeconds)

	f := manager.Forecast{
		Timezone: r.Timezone,
		Current: manager.Current{
			Temperature:         r.Current.Temperature,
			Humidity:            r.Current.Humidity,
			ApparentTemperature: r.Current.ApparentTemperature,
			Precipitation:       r.Current.Precipitation,
			Rain:                r.Current.Rain,
			Showers:             r.Current.Showers,
			Snowfall:            r.Current.Snowfall,
			WeatherCode:         r.Current.WeatherCode,
			CloudCover:          r.Current.CloudCover,
			Pressure:            r.Current.Pressure,
			WindSpeed:           r.Current.WindSpeed,
			WindDirection:       r.Current.WindDirection,
		},
	}

	if r.Current.Time != "" {
		t, err := time.ParseInLocation(timeLayout, r.Current.Time, zone)
		if err != nil {
			return manager.Forecast{}, fmt.Errorf("current time: %w", err)
		}
		f.Current.Time = t
	}

	h := r.Hourly
	f.Hourly = make([]manager.HourlyPoint, 0, len(h.Time))
	for i, raw := range h.Time {
		t, err := time.ParseInLocation(timeLayout, raw, zone)
		if err != nil {
			return manager.Forecast{}, fmt.Errorf("hourly time %d: %w", i, err)
		}

		f.Hourly = append(f.Hourly, manager.HourlyPoint{
			Time:                     t,
			Temperature:              at(h.Temperature, i),
			Humidity:                 at(h.Humidity, i),
			PrecipitationProbability: at(h.PrecipitationProbability, i),
			Precipitation:            at(h.Precipitation, i),
			WeatherCode:              at(h.WeatherCode, i),
			WindSpeed:                at(h.WindSpeed, i),
		})
	}

	d := r.Daily
	f.Daily = make([]manager.DailyPoint, 0, len(d.Time))
	for i, raw := range d.Time {
		t, err := time.ParseInLocation(dateLayout, raw, zone)
		if err != nil {
			return manager.Forecast{}, fmt.Errorf("daily date %d: %w", i, err)
		}

		f.Daily = append(f.Daily, manager.DailyPoint{
			Date:                     t,
			WeatherCode:              at(d.WeatherCode, i),
			TemperatureMax:           at(d.TemperatureMax, i),
			TemperatureMin:           at(d.TemperatureMin, i),
			PrecipitationSum:         at(d.PrecipitationSum, i),
			PrecipitationProbability: at(d.PrecipitationProbability, i),
			WindSpeedMax:             at(d.WindSpeedMax, i),
		})
	}

	return f, nil
}

func at[T any](values []T, i int) T {
	var zero T
	if i >= len(values) {
		return zero
	}

	return values[i]
}
