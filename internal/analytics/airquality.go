package analytics

import (
	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

// European AQI category boundaries.
const (
	aqiLowMax    = 50.0
	aqiMediumMax = 100.0
)

// AirQualityAnalytics converts the numeric European AQI into a category.
type AirQualityAnalytics struct{}

func (AirQualityAnalytics) Name() string { return "airquality-analytics" }

func (AirQualityAnalytics) Apply(snap *mobility.Snapshot) error {
	aq := snap.AirQuality
	if aq == nil {
		return nil
	}
	aq.Status = categorizeAQI(aq.EuropeanAQI)
	return nil
}

func categorizeAQI(aqi float64) string {
	switch {
	case aqi <= aqiLowMax:
		return "low"
	case aqi <= aqiMediumMax:
		return "medium"
	default:
		return "high"
	}
}
