package mobility

import (
	"time"
)

// DefaultLocation is the canonical location identifier used whenever a
// caller does not supply one. Every component that needs a default must
// use this constant rather than its own string.
const DefaultLocation = "dublin"

// SourceStatus describes the outcome of one source during an aggregation run.
type SourceStatus string

const (
	// StatusLive means the source answered with fresh data.
	StatusLive SourceStatus = "live"
	// StatusCached means the source failed and stale data was substituted
	// from the fallback cache.
	StatusCached SourceStatus = "cached"
	// StatusFailed means the source failed and no fallback data existed.
	StatusFailed SourceStatus = "failed"
)

// StationMetrics describes one bike-share station.
type StationMetrics struct {
	Name                string  `json:"name"`
	FreeBikes           int     `json:"freeBikes"`
	EmptySlots          int     `json:"emptySlots"`
	TotalSpaces         int     `json:"totalSpaces"`
	AvailabilityPercent float64 `json:"availabilityPercent,omitempty"` // derived
}

// BikeMetrics is the bike-share slot of a snapshot.
type BikeMetrics struct {
	AvailableBikes    int              `json:"availableBikes"`
	AvailableDocks    int              `json:"availableDocks"`
	StationsReporting int              `json:"stationsReporting"`
	OccupancyPercent  float64          `json:"occupancyPercent,omitempty"` // derived
	Stations          []StationMetrics `json:"stations,omitempty"`
}

// TrafficIncident is a single incident as reported upstream.
type TrafficIncident struct {
	Category     string  `json:"category"`
	Severity     string  `json:"severity"`
	Description  string  `json:"description"`
	From         string  `json:"from"`
	To           string  `json:"to"`
	Road         string  `json:"road"`
	LengthMeters float64 `json:"lengthMeters"`
	DelaySeconds int     `json:"delaySeconds"`
	DelayMinutes float64 `json:"delayMinutes"`
}

// TrafficMetrics holds figures derived from raw incidents by analytics.
type TrafficMetrics struct {
	CongestionLevel     string         `json:"congestionLevel"` // low, medium, high
	AverageSpeedKmh     float64        `json:"averageSpeedKmh"`
	TotalIncidents      int            `json:"totalIncidents"`
	IncidentsByCategory map[string]int `json:"incidentsByCategory,omitempty"`
	IncidentsBySeverity map[string]int `json:"incidentsBySeverity,omitempty"`
	TotalDelayMinutes   float64        `json:"totalDelayMinutes"`
	AverageDelayMinutes float64        `json:"averageDelayMinutes"`
}

// TrafficReport is the traffic slot of a snapshot: the raw incidents owned
// by the traffic source plus derived metrics filled in by analytics.
type TrafficReport struct {
	RadiusKm  float64           `json:"radiusKm"`
	Incidents []TrafficIncident `json:"incidents"`
	Metrics   *TrafficMetrics   `json:"metrics,omitempty"` // derived
}

// AirQualityMetrics is the air quality slot of a snapshot.
type AirQualityMetrics struct {
	Area        string  `json:"area"`
	EuropeanAQI float64 `json:"europeanAqi"`
	Status      string  `json:"status,omitempty"` // derived: low, medium, high
}

// Attraction is a single point of interest.
type Attraction struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	Type                 string  `json:"type"` // museum, castle, park, attraction
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	OpeningHours         string  `json:"openingHours,omitempty"`
	Price                string  `json:"price,omitempty"`
	Website              string  `json:"website,omitempty"`
	WheelchairAccessible string  `json:"wheelchairAccessible,omitempty"`
}

// AttractionMetrics is the points-of-interest slot of a snapshot.
type AttractionMetrics struct {
	TotalAttractions          int            `json:"totalAttractions"`
	AttractionsByType         map[string]int `json:"attractionsByType,omitempty"`
	FreeCount                 int            `json:"freeCount"`
	PaidCount                 int            `json:"paidCount"`
	WheelchairAccessibleCount int            `json:"wheelchairAccessibleCount"`
	Attractions               []Attraction   `json:"attractions,omitempty"`
}

// Snapshot is the unified per-location view produced by one aggregation run.
// Each domain slot is nil until some source populates it; all slots nil at
// once is a valid (total outage) state. SourceStatus always holds exactly
// one entry per registered source after a completed build.
type Snapshot struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"` // aggregation start, UTC
	Location  string    `json:"location"`

	Bikes       *BikeMetrics       `json:"bikes,omitempty"`
	Traffic     *TrafficReport     `json:"traffic,omitempty"`
	AirQuality  *AirQualityMetrics `json:"airQuality,omitempty"`
	Attractions *AttractionMetrics `json:"attractions,omitempty"`

	// Recommendations is derived by analysis hooks, never by sources.
	Recommendations []string `json:"recommendations,omitempty"`

	SourceStatus map[string]SourceStatus `json:"sourceStatus"`
}

// PartialResult is the sparse subset of snapshot fields one source produces.
// Only the slots a source owns are non-nil.
type PartialResult struct {
	Bikes       *BikeMetrics       `json:"bikes,omitempty"`
	Traffic     *TrafficReport     `json:"traffic,omitempty"`
	AirQuality  *AirQualityMetrics `json:"airQuality,omitempty"`
	Attractions *AttractionMetrics `json:"attractions,omitempty"`
}

// IsEmpty reports whether the partial carries no data at all.
func (p PartialResult) IsEmpty() bool {
	return p.Bikes == nil && p.Traffic == nil && p.AirQuality == nil && p.Attractions == nil
}
