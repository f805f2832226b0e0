package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

const defaultBikesBaseURL = "https://api.citybik.es/v2/networks"

// BikesSource fetches bike-share occupancy from the citybik.es API.
type BikesSource struct {
	name    string
	baseURL string
	tr      *transport
}

// NewBikesSource creates the bike-share source. An empty baseURL selects
// the public citybik.es endpoint.
func NewBikesSource(client *http.Client, baseURL string) *BikesSource {
	if baseURL == "" {
		baseURL = defaultBikesBaseURL
	}
	return &BikesSource{
		name:    "bikes",
		baseURL: baseURL,
		tr:      newTransport("bikes", client),
	}
}

func (s *BikesSource) Name() string {
	return s.name
}

// Fetch retrieves the station list for the configured network and sums it
// into BikeMetrics. The "network" param selects the citybik.es network,
// defaulting to dublinbikes.
func (s *BikesSource) Fetch(ctx context.Context, location string, params mobility.Params) (mobility.PartialResult, error) {
	network := params.Get("network", "dublinbikes")

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/%s", s.baseURL, network), nil)
	}

	resp, err := s.tr.do(ctx, buildRequest)
	if err != nil {
		return mobility.PartialResult{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Network struct {
			Stations []struct {
				Name       string `json:"name"`
				FreeBikes  int    `json:"free_bikes"`
				EmptySlots int    `json:"empty_slots"`
				Extra      struct {
					Slots int `json:"slots"`
				} `json:"extra"`
			} `json:"stations"`
		} `json:"network"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return mobility.PartialResult{}, fmt.Errorf("decoding bikes response: %w", err)
	}

	metrics := &mobility.BikeMetrics{
		Stations: make([]mobility.StationMetrics, 0, len(payload.Network.Stations)),
	}
	for _, st := range payload.Network.Stations {
		metrics.AvailableBikes += st.FreeBikes
		metrics.AvailableDocks += st.EmptySlots
		metrics.Stations = append(metrics.Stations, mobility.StationMetrics{
			Name:        st.Name,
			FreeBikes:   st.FreeBikes,
			EmptySlots:  st.EmptySlots,
			TotalSpaces: st.Extra.Slots,
		})
	}
	metrics.StationsReporting = len(metrics.Stations)

	return mobility.PartialResult{Bikes: metrics}, nil
}
