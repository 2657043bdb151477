package entity

// Observation is one raw air-quality record: one sensor, one reporting
// interval, one parameter, with the owning sensor's metadata merged in.
// Several sensors in the same city may report the same parameter for the same
// hour; the reconciler resolves that by aggregation, it is not an error.
//
// The interval timestamps are kept as the provider's raw strings. The
// reconciler normalizes them to UTC and coerces unparseable values to a
// missing marker instead of failing the row.
type Observation struct {
	SensorID       int64
	ParameterName  string
	ParameterUnits string
	Value          float64
	SummaryAvg     float64
	// DatetimeFromUTC / DatetimeToUTC are RFC 3339 strings as returned by the
	// provider, possibly empty or malformed.
	DatetimeFromUTC string
	DatetimeToUTC   string

	// Sensor metadata, merged in at fetch time. Record fields win on key
	// collision, so these never overwrite provider-reported values above.
	City        string
	StationName string
	Latitude    float64
	Longitude   float64
}
