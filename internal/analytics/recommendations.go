package analytics

import (
	"fmt"

	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

// Recommendations composes human-readable advice from whatever slots are
// populated. It should run after the other hooks so it can read their
// derived fields; absent slots are simply skipped.
type Recommendations struct{}

func (Recommendations) Name() string { return "recommendations" }

func (Recommendations) Apply(snap *mobility.Snapshot) error {
	var recs []string

	if tr := snap.Traffic; tr != nil && tr.Metrics != nil {
		switch tr.Metrics.CongestionLevel {
		case "high":
			recs = append(recs, "heavy traffic right now, public transport or walking will likely be faster")
		case "medium":
			recs = append(recs, "moderate traffic, allow extra time for road journeys")
		}
	}

	if aq := snap.AirQuality; aq != nil && aq.Status == "high" {
		recs = append(recs, "air quality is poor, consider limiting outdoor activity")
	}

	if bikes := snap.Bikes; bikes != nil && bikes.StationsReporting > 0 {
		if bikes.AvailableBikes == 0 {
			recs = append(recs, "no shared bikes available at the moment")
		} else if aqOK(snap) {
			recs = append(recs, fmt.Sprintf("%d shared bikes available, cycling is a good option", bikes.AvailableBikes))
		}
	}

	if at := snap.Attractions; at != nil && at.FreeCount > 0 {
		recs = append(recs, fmt.Sprintf("%d free attractions nearby", at.FreeCount))
	}

	snap.Recommendations = recs
	return nil
}

func aqOK(snap *mobility.Snapshot) bool {
	return snap.AirQuality == nil || snap.AirQuality.Status != "high"
}

// Default returns the standard hook pipeline in its intended order:
// per-domain analytics first, recommendations last.
func Default() []mobility.AnalysisHook {
	return []mobility.AnalysisHook{
		BikeAnalytics{},
		TrafficAnalytics{},
		AirQualityAnalytics{},
		Recommendations{},
	}
}
