package sources

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// knownAreas are pre-resolved area keys that work without any geocoding
// API key configured. city_center doubles as the fallback for the default
// location.
var knownAreas = map[string]Coordinates{
	"dublin":      {Lat: 53.3498, Lon: -6.2603},
	"city_center": {Lat: 53.3498, Lon: -6.2603},
	"south_side":  {Lat: 53.3315, Lon: -6.2595},
	"north_side":  {Lat: 53.3576, Lon: -6.2452},
	"west_dublin": {Lat: 53.3500, Lon: -6.3200},
	"east_dublin": {Lat: 53.3454, Lon: -6.2290},
}

// Geocoder resolves location identifiers to coordinates, preferring the
// static area table and falling back to the Google geocoding API when a
// key is configured. Resolved locations are memoized.
type Geocoder struct {
	mu     sync.Mutex
	cache  map[string]Coordinates
	apiKey string
}

// NewGeocoder creates a Geocoder. An empty apiKey limits resolution to the
// static area table.
func NewGeocoder(apiKey string) *Geocoder {
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	return &Geocoder{
		cache:  make(map[string]Coordinates),
		apiKey: apiKey,
	}
}

// Resolve maps a location identifier to coordinates.
func (g *Geocoder) Resolve(location string) (Coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(location))
	if key == "" {
		key = "dublin"
	}

	if c, ok := knownAreas[key]; ok {
		return c, nil
	}

	g.mu.Lock()
	c, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		return c, nil
	}

	if g.apiKey == "" {
		return Coordinates{}, fmt.Errorf("unknown area %q and no geocoder api key configured", location)
	}

	loc, err := geocoder.Geocoding(geocoder.Address{City: location})
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoding %q: %w", location, err)
	}

	c = Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}
	g.mu.Lock()
	g.cache[key] = c
	g.mu.Unlock()
	return c, nil
}
