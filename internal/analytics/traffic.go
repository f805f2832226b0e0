// Package analytics contains the analysis hooks that derive metrics from a
// merged snapshot. Hooks only ever fill derived fields; the raw data owned
// by sources is never rewritten.
package analytics

import (
	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

// Congestion thresholds in incidents per km of search radius.
const (
	highCongestionPerKm   = 5.0
	mediumCongestionPerKm = 2.0
)

// TrafficAnalytics derives congestion metrics from the raw incident list.
type TrafficAnalytics struct{}

func (TrafficAnalytics) Name() string { return "traffic-analytics" }

func (TrafficAnalytics) Apply(snap *mobility.Snapshot) error {
	report := snap.Traffic
	if report == nil {
		return nil
	}

	byCategory := make(map[string]int)
	bySeverity := make(map[string]int)
	var totalDelay float64

	for _, inc := range report.Incidents {
		if inc.Category != "" {
			byCategory[inc.Category]++
		}
		if inc.Severity != "" {
			bySeverity[inc.Severity]++
		}
		totalDelay += inc.DelayMinutes
	}

	total := len(report.Incidents)
	avgDelay := 0.0
	if total > 0 {
		avgDelay = totalDelay / float64(total)
	}

	perKm := 0.0
	if report.RadiusKm > 0 {
		perKm = float64(total) / report.RadiusKm
	}

	congestion := "low"
	avgSpeed := 50.0
	switch {
	case perKm > highCongestionPerKm:
		congestion = "high"
		avgSpeed = 15.0
	case perKm > mediumCongestionPerKm:
		congestion = "medium"
		avgSpeed = 30.0
	}

	report.Metrics = &mobility.TrafficMetrics{
		CongestionLevel:     congestion,
		AverageSpeedKmh:     avgSpeed,
		TotalIncidents:      total,
		IncidentsByCategory: byCategory,
		IncidentsBySeverity: bySeverity,
		TotalDelayMinutes:   totalDelay,
		AverageDelayMinutes: avgDelay,
	}
	return nil
}
