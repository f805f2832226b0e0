package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mobilitydash/mobility-data-aggregation/internal/common"
	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

const defaultOverpassBaseURL = "https://overpass-api.de/api/interpreter"

// AttractionsSource fetches points of interest from the OpenStreetMap
// Overpass API.
type AttractionsSource struct {
	name     string
	baseURL  string
	geocoder *Geocoder
	tr       *transport
}

// NewAttractionsSource creates the attractions source. An empty baseURL
// selects the public Overpass endpoint.
func NewAttractionsSource(client *http.Client, geo *Geocoder, baseURL string) *AttractionsSource {
	if baseURL == "" {
		baseURL = defaultOverpassBaseURL
	}
	return &AttractionsSource{
		name:     "attractions",
		baseURL:  baseURL,
		geocoder: geo,
		tr:       newTransport("attractions", client),
	}
}

func (s *AttractionsSource) Name() string {
	return s.name
}

// Fetch queries tourism, historic and leisure nodes within "radius_km"
// (default 5) of the location and aggregates them into AttractionMetrics.
func (s *AttractionsSource) Fetch(ctx context.Context, location string, params mobility.Params) (mobility.PartialResult, error) {
	coords, err := s.geocoder.Resolve(location)
	if err != nil {
		return mobility.PartialResult{}, err
	}

	radiusM := int(params.Float("radius_km", 5) * 1000)
	query := overpassQuery(coords, radiusM)

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodPost, s.baseURL, strings.NewReader(query))
	}

	resp, err := s.tr.do(ctx, buildRequest)
	if err != nil {
		return mobility.PartialResult{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Elements *[]struct {
			ID     int64             `json:"id"`
			Lat    float64           `json:"lat"`
			Lon    float64           `json:"lon"`
			Center *struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"center"`
			Tags map[string]string `json:"tags"`
		} `json:"elements"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return mobility.PartialResult{}, fmt.Errorf("decoding attractions response: %w", err)
	}
	if payload.Elements == nil {
		return mobility.PartialResult{}, fmt.Errorf("attractions response missing required field %q", "elements")
	}

	metrics := &mobility.AttractionMetrics{
		AttractionsByType: make(map[string]int),
	}

	for _, el := range *payload.Elements {
		tags := el.Tags
		if tags == nil {
			tags = map[string]string{}
		}

		lat, lon := el.Lat, el.Lon
		if el.Center != nil {
			lat, lon = el.Center.Lat, el.Center.Lon
		}

		kind := attractionType(tags)
		attraction := mobility.Attraction{
			ID:                   el.ID,
			Name:                 tagOr(tags, "name", "Unknown"),
			Type:                 kind,
			Latitude:             lat,
			Longitude:            lon,
			OpeningHours:         tags["opening_hours"],
			Price:                attractionPrice(tags),
			Website:              tags["website"],
			WheelchairAccessible: tags["wheelchair"],
		}

		metrics.Attractions = append(metrics.Attractions, attraction)
		metrics.AttractionsByType[kind]++
		if common.HasAny(attraction.Price, "free", "no") {
			metrics.FreeCount++
		} else if attraction.Price != "" {
			metrics.PaidCount++
		}
		if attraction.WheelchairAccessible == "yes" {
			metrics.WheelchairAccessibleCount++
		}
	}
	metrics.TotalAttractions = len(metrics.Attractions)

	return mobility.PartialResult{Attractions: metrics}, nil
}

func overpassQuery(c Coordinates, radiusM int) string {
	var b strings.Builder
	b.WriteString("[out:json];(")
	for _, sel := range []string{
		`node["tourism"="attraction"]`,
		`node["tourism"="museum"]`,
		`node["historic"="castle"]`,
		`node["historic"="monument"]`,
		`way["tourism"="attraction"]`,
		`way["tourism"="museum"]`,
		`way["historic"="castle"]`,
		`way["leisure"="park"]`,
	} {
		fmt.Fprintf(&b, "%s(around:%d,%.4f,%.4f);", sel, radiusM, c.Lat, c.Lon)
	}
	b.WriteString(");out center;")
	return b.String()
}

func attractionType(tags map[string]string) string {
	if v := tags["tourism"]; v != "" {
		return v
	}
	if v := tags["historic"]; v != "" {
		return v
	}
	if v := tags["leisure"]; v != "" {
		return v
	}
	return "attraction"
}

func attractionPrice(tags map[string]string) string {
	if fee, ok := tags["fee"]; ok {
		if fee == "no" {
			return "free"
		}
		return fee
	}
	return tags["charge"]
}

func tagOr(tags map[string]string, key, def string) string {
	if v := tags[key]; v != "" {
		return v
	}
	return def
}
