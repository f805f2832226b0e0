package analytics

import (
	"testing"

	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

func TestTrafficAnalyticsCongestionLevels(t *testing.T) {
	cases := []struct {
		name      string
		incidents int
		radiusKm  float64
		wantLevel string
		wantSpeed float64
	}{
		{"low", 1, 1.0, "low", 50},
		{"medium", 3, 1.0, "medium", 30},
		{"high", 12, 2.0, "high", 15},
		{"zero radius stays low", 10, 0, "low", 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			incidents := make([]mobility.TrafficIncident, tc.incidents)
			for i := range incidents {
				incidents[i] = mobility.TrafficIncident{Category: "Jam", Severity: "Moderate", DelayMinutes: 4}
			}
			snap := &mobility.Snapshot{
				Traffic: &mobility.TrafficReport{RadiusKm: tc.radiusKm, Incidents: incidents},
			}

			if err := (TrafficAnalytics{}).Apply(snap); err != nil {
				t.Fatalf("Apply() failed: %v", err)
			}

			m := snap.Traffic.Metrics
			if m == nil {
				t.Fatal("metrics not set")
			}
			if m.CongestionLevel != tc.wantLevel {
				t.Errorf("congestion: got %q, want %q", m.CongestionLevel, tc.wantLevel)
			}
			if m.AverageSpeedKmh != tc.wantSpeed {
				t.Errorf("avg speed: got %v, want %v", m.AverageSpeedKmh, tc.wantSpeed)
			}
			if m.TotalIncidents != tc.incidents {
				t.Errorf("total incidents: got %d, want %d", m.TotalIncidents, tc.incidents)
			}
		})
	}
}

func TestTrafficAnalyticsCountsAndDelays(t *testing.T) {
	snap := &mobility.Snapshot{
		Traffic: &mobility.TrafficReport{
			RadiusKm: 1,
			Incidents: []mobility.TrafficIncident{
				{Category: "Jam", Severity: "Major", DelayMinutes: 10},
				{Category: "Jam", Severity: "Minor", DelayMinutes: 2},
				{Category: "Road Closed", Severity: "Major", DelayMinutes: 0},
			},
		},
	}

	if err := (TrafficAnalytics{}).Apply(snap); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	m := snap.Traffic.Metrics
	if m.IncidentsByCategory["Jam"] != 2 || m.IncidentsByCategory["Road Closed"] != 1 {
		t.Errorf("category counts wrong: %v", m.IncidentsByCategory)
	}
	if m.IncidentsBySeverity["Major"] != 2 {
		t.Errorf("severity counts wrong: %v", m.IncidentsBySeverity)
	}
	if m.TotalDelayMinutes != 12 {
		t.Errorf("total delay: got %v, want 12", m.TotalDelayMinutes)
	}
	if m.AverageDelayMinutes != 4 {
		t.Errorf("average delay: got %v, want 4", m.AverageDelayMinutes)
	}
}

func TestTrafficAnalyticsSkipsAbsentSlot(t *testing.T) {
	snap := &mobility.Snapshot{}
	if err := (TrafficAnalytics{}).Apply(snap); err != nil {
		t.Fatalf("Apply() on empty snapshot failed: %v", err)
	}
	if snap.Traffic != nil {
		t.Errorf("hook must not create the traffic slot")
	}
}

func TestAirQualityAnalyticsCategories(t *testing.T) {
	cases := []struct {
		aqi  float64
		want string
	}{
		{0, "low"},
		{50, "low"},
		{51, "medium"},
		{100, "medium"},
		{101, "high"},
	}

	for _, tc := range cases {
		snap := &mobility.Snapshot{
			AirQuality: &mobility.AirQualityMetrics{Area: "dublin", EuropeanAQI: tc.aqi},
		}
		if err := (AirQualityAnalytics{}).Apply(snap); err != nil {
			t.Fatalf("Apply() failed: %v", err)
		}
		if snap.AirQuality.Status != tc.want {
			t.Errorf("aqi %v: got %q, want %q", tc.aqi, snap.AirQuality.Status, tc.want)
		}
	}
}

func TestBikeAnalyticsOccupancy(t *testing.T) {
	snap := &mobility.Snapshot{
		Bikes: &mobility.BikeMetrics{
			AvailableBikes:    30,
			AvailableDocks:    70,
			StationsReporting: 2,
			Stations: []mobility.StationMetrics{
				{Name: "a", FreeBikes: 5, TotalSpaces: 20},
				{Name: "b", FreeBikes: 3, TotalSpaces: 0}, // no capacity reported
			},
		},
	}

	if err := (BikeAnalytics{}).Apply(snap); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	if snap.Bikes.OccupancyPercent != 30 {
		t.Errorf("occupancy: got %v, want 30", snap.Bikes.OccupancyPercent)
	}
	if snap.Bikes.Stations[0].AvailabilityPercent != 25 {
		t.Errorf("station availability: got %v, want 25", snap.Bikes.Stations[0].AvailabilityPercent)
	}
	if snap.Bikes.Stations[1].AvailabilityPercent != 0 {
		t.Errorf("zero-capacity station should stay at zero")
	}
}

func TestRecommendationsComposedFromPopulatedSlots(t *testing.T) {
	snap := &mobility.Snapshot{
		Traffic: &mobility.TrafficReport{
			Metrics: &mobility.TrafficMetrics{CongestionLevel: "high"},
		},
		AirQuality: &mobility.AirQualityMetrics{Status: "high"},
		Bikes:      &mobility.BikeMetrics{AvailableBikes: 12, StationsReporting: 3},
	}

	if err := (Recommendations{}).Apply(snap); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	// Poor air quality suppresses the cycling suggestion, so exactly two
	// recommendations: traffic and air quality.
	if len(snap.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2: %v", len(snap.Recommendations), snap.Recommendations)
	}
}

func TestRecommendationsEmptySnapshot(t *testing.T) {
	snap := &mobility.Snapshot{}
	if err := (Recommendations{}).Apply(snap); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if len(snap.Recommendations) != 0 {
		t.Errorf("total outage should yield no recommendations: %v", snap.Recommendations)
	}
}

func TestDefaultPipelineOrder(t *testing.T) {
	hooks := Default()
	if len(hooks) == 0 {
		t.Fatal("default pipeline is empty")
	}
	if hooks[len(hooks)-1].Name() != "recommendations" {
		t.Errorf("recommendations must run last, got %q", hooks[len(hooks)-1].Name())
	}
}
