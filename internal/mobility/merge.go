package mobility

// mergeFields is the static per-field merge table. Each entry copies one
// domain slot from a partial into the snapshot when the partial carries it.
// Policy: last non-empty wins, empty never erases. Re-applying the same
// partial is a no-op after the first application.
var mergeFields = []func(*Snapshot, PartialResult){
	func(s *Snapshot, p PartialResult) {
		if p.Bikes != nil {
			s.Bikes = p.Bikes
		}
	},
	func(s *Snapshot, p PartialResult) {
		if p.Traffic != nil {
			s.Traffic = p.Traffic
		}
	},
	func(s *Snapshot, p PartialResult) {
		if p.AirQuality != nil {
			s.AirQuality = p.AirQuality
		}
	},
	func(s *Snapshot, p PartialResult) {
		if p.Attractions != nil {
			s.Attractions = p.Attractions
		}
	},
}

// Merge applies a partial result to the snapshot under construction.
func Merge(snap *Snapshot, partial PartialResult) {
	for _, apply := range mergeFields {
		apply(snap, partial)
	}
}
