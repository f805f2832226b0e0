package analytics

import (
	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

// BikeAnalytics derives occupancy figures from raw bike-share counts.
type BikeAnalytics struct{}

func (BikeAnalytics) Name() string { return "bike-analytics" }

func (BikeAnalytics) Apply(snap *mobility.Snapshot) error {
	bikes := snap.Bikes
	if bikes == nil {
		return nil
	}

	capacity := bikes.AvailableBikes + bikes.AvailableDocks
	if capacity > 0 {
		bikes.OccupancyPercent = float64(bikes.AvailableBikes) / float64(capacity) * 100
	}

	// Stations with zero reported capacity are left at zero rather than
	// dividing by it.
	for i := range bikes.Stations {
		st := &bikes.Stations[i]
		if st.TotalSpaces > 0 {
			st.AvailabilityPercent = float64(st.FreeBikes) / float64(st.TotalSpaces) * 100
		}
	}
	return nil
}
