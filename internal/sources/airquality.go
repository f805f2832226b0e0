package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

const defaultAirQualityBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

// AirQualitySource fetches the current European AQI from Open-Meteo.
type AirQualitySource struct {
	name     string
	baseURL  string
	geocoder *Geocoder
	tr       *transport
}

// NewAirQualitySource creates the air quality source. An empty baseURL
// selects the public Open-Meteo endpoint.
func NewAirQualitySource(client *http.Client, geo *Geocoder, baseURL string) *AirQualitySource {
	if baseURL == "" {
		baseURL = defaultAirQualityBaseURL
	}
	return &AirQualitySource{
		name:     "airquality",
		baseURL:  baseURL,
		geocoder: geo,
		tr:       newTransport("airquality", client),
	}
}

func (s *AirQualitySource) Name() string {
	return s.name
}

// Fetch resolves the location to coordinates, queries the current European
// AQI and returns it as AirQualityMetrics. The "area" param overrides the
// location for resolution.
func (s *AirQualitySource) Fetch(ctx context.Context, location string, params mobility.Params) (mobility.PartialResult, error) {
	area := params.Get("area", location)
	coords, err := s.geocoder.Resolve(area)
	if err != nil {
		return mobility.PartialResult{}, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(coords.Lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(coords.Lon, 'f', 4, 64))
		values.Set("current", "european_aqi")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", s.baseURL, values.Encode()), nil)
	}

	resp, err := s.tr.do(ctx, buildRequest)
	if err != nil {
		return mobility.PartialResult{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			EuropeanAQI float64 `json:"european_aqi"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return mobility.PartialResult{}, fmt.Errorf("decoding air quality response: %w", err)
	}

	return mobility.PartialResult{
		AirQuality: &mobility.AirQualityMetrics{
			Area:        strings.ToLower(area),
			EuropeanAQI: payload.Current.EuropeanAQI,
		},
	}, nil
}
