package entity

import "time"

// Sensor is a single measurement device discovered near one of the registry
// cities. The city label is the caller-supplied registry name, not the
// provider's own city field, which is unreliable.
type Sensor struct {
	SensorID    int64
	Latitude    float64
	Longitude   float64
	City        string
	StationName string
	// FirstSeenUTC / LastSeenUTC are zero when the provider omitted them.
	FirstSeenUTC time.Time
	LastSeenUTC  time.Time
	Timezone     string
}

// SeenWithin reports whether the sensor's last reading falls inside the
// trailing freshness window ending at now. Sensors outside the window are
// presumed offline and skipped before any time-series fetch, bounding wasted
// quota.
func (s Sensor) SeenWithin(now time.Time, window time.Duration) bool {
	if s.LastSeenUTC.IsZero() {
		return false
	}
	return !s.LastSeenUTC.Before(now.Add(-window)) && !s.LastSeenUTC.After(now)
}
