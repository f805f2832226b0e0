package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

const defaultTrafficBaseURL = "https://api.tomtom.com/traffic/services/4/incidentDetails"

// TrafficSource fetches traffic incidents for an area around a location.
type TrafficSource struct {
	name    string
	apiKey  string
	baseURL string
	tr      *transport
}

// NewTrafficSource creates the traffic source. An empty baseURL selects the
// TomTom incident details endpoint.
func NewTrafficSource(client *http.Client, apiKey, baseURL string) *TrafficSource {
	if baseURL == "" {
		baseURL = defaultTrafficBaseURL
	}
	return &TrafficSource{
		name:    "traffic",
		apiKey:  apiKey,
		baseURL: baseURL,
		tr:      newTransport("traffic", client),
	}
}

func (s *TrafficSource) Name() string {
	return s.name
}

// Fetch retrieves incidents within "radius_km" (default 1.0) of the
// location and returns them as a TrafficReport.
func (s *TrafficSource) Fetch(ctx context.Context, location string, params mobility.Params) (mobility.PartialResult, error) {
	radiusKm := params.Float("radius_km", 1.0)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("location", location)
		values.Set("radius_km", strconv.FormatFloat(radiusKm, 'f', -1, 64))
		if s.apiKey != "" {
			values.Set("key", s.apiKey)
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", s.baseURL, values.Encode()), nil)
	}

	resp, err := s.tr.do(ctx, buildRequest)
	if err != nil {
		return mobility.PartialResult{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Incidents *[]struct {
			Category     string  `json:"category"`
			Severity     string  `json:"severity"`
			Description  string  `json:"description"`
			From         string  `json:"from"`
			To           string  `json:"to"`
			Road         string  `json:"road"`
			LengthMeters float64 `json:"length_meters"`
			DelaySeconds int     `json:"delay_seconds"`
			DelayMinutes float64 `json:"delay_minutes"`
		} `json:"incidents"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return mobility.PartialResult{}, fmt.Errorf("decoding traffic response: %w", err)
	}
	if payload.Incidents == nil {
		return mobility.PartialResult{}, fmt.Errorf("traffic response missing required field %q", "incidents")
	}

	report := &mobility.TrafficReport{
		RadiusKm:  radiusKm,
		Incidents: make([]mobility.TrafficIncident, 0, len(*payload.Incidents)),
	}
	for _, inc := range *payload.Incidents {
		report.Incidents = append(report.Incidents, mobility.TrafficIncident{
			Category:     inc.Category,
			Severity:     inc.Severity,
			Description:  inc.Description,
			From:         inc.From,
			To:           inc.To,
			Road:         inc.Road,
			LengthMeters: inc.LengthMeters,
			DelaySeconds: inc.DelaySeconds,
			DelayMinutes: inc.DelayMinutes,
		})
	}

	return mobility.PartialResult{Traffic: report}, nil
}
