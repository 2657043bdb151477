package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// uniqueIDLength is the width of the truncated hex hash used as the cleaned
// table's primary key. 48 bits of hash keep the collision probability
// negligible for a single run's row count.
const uniqueIDLength = 12

// RecordReconciler aggregates duplicate observations, joins them against the
// weather table and produces the final cleaned table.
type RecordReconciler struct {
	recorder metrics.Recorder
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewRecordReconciler creates a reconciler.
func NewRecordReconciler(recorder metrics.Recorder) *RecordReconciler {
	return &RecordReconciler{recorder: recorder, now: time.Now}
}

// aggregateKey identifies one deduplicated observation: several co-located
// sensors reporting the same parameter for the same hour collapse onto one
// key.
type aggregateKey struct {
	parameter string
	hour      time.Time
	city      string
}

// AggregatedObservation is one deduplicated observation: descriptive fields
// are first-wins, the interval end is last-wins, and the numeric measurement
// fields are arithmetic means over the contributing rows.
type AggregatedObservation struct {
	ParameterName   string
	DatetimeFromUTC time.Time
	DatetimeToUTC   time.Time
	City            string
	SensorID        int64
	StationName     string
	Latitude        float64
	Longitude       float64
	ParameterUnits  string
	Value           float64
	SummaryAvg      float64

	count int
}

// Reconcile runs the full cleaning sequence: timestamp normalization,
// aggregation, the inner weather join, key generation and stamping.
func (r *RecordReconciler) Reconcile(observations []entity.Observation, weather []entity.WeatherRecord) []entity.CleanedRecord {
	aggregated := r.Aggregate(observations)
	cleaned := r.join(aggregated, weather)
	r.recorder.AddRows("reconcile", len(cleaned))
	logger.Infof("reconciler: %d observations -> %d aggregated -> %d cleaned records",
		len(observations), len(aggregated), len(cleaned))
	return cleaned
}

// Aggregate normalizes observation timestamps to UTC and collapses rows
// sharing (parameter, hour, city). An unparseable interval start is coerced
// to the zero time rather than failing the row; such rows can never match a
// weather hour and fall out at the join. Aggregation is idempotent: running
// it over already-unique keys returns an identical table. Key order follows
// first appearance in the input, keeping the run-local ordinal stable.
func (r *RecordReconciler) Aggregate(observations []entity.Observation) []AggregatedObservation {
	index := make(map[aggregateKey]int, len(observations))
	var out []AggregatedObservation

	for _, obs := range observations {
		from := coerceUTC(obs.DatetimeFromUTC)
		to := coerceUTC(obs.DatetimeToUTC)
		key := aggregateKey{parameter: obs.ParameterName, hour: from, city: obs.City}

		if i, ok := index[key]; ok {
			agg := &out[i]
			// Last interval end wins; numeric fields accumulate for the mean.
			agg.DatetimeToUTC = to
			agg.Value += obs.Value
			agg.SummaryAvg += obs.SummaryAvg
			agg.count++
			continue
		}

		index[key] = len(out)
		out = append(out, AggregatedObservation{
			ParameterName:   obs.ParameterName,
			DatetimeFromUTC: from,
			DatetimeToUTC:   to,
			City:            obs.City,
			SensorID:        obs.SensorID,
			StationName:     obs.StationName,
			Latitude:        obs.Latitude,
			Longitude:       obs.Longitude,
			ParameterUnits:  obs.ParameterUnits,
			Value:           obs.Value,
			SummaryAvg:      obs.SummaryAvg,
			count:           1,
		})
	}

	for i := range out {
		if out[i].count > 1 {
			out[i].Value /= float64(out[i].count)
			out[i].SummaryAvg /= float64(out[i].count)
		}
	}
	return out
}

type weatherKey struct {
	city string
	hour time.Time
}

// join inner-joins the aggregated observations onto the weather table on the
// (city, hourly UTC timestamp) key. Rows on either side with no match are
// dropped: a cleaned record requires both weather and air-quality context
// for its hour.
func (r *RecordReconciler) join(aggregated []AggregatedObservation, weather []entity.WeatherRecord) []entity.CleanedRecord {
	weatherIndex := make(map[weatherKey]entity.WeatherRecord, len(weather))
	for _, w := range weather {
		weatherIndex[weatherKey{city: w.City, hour: w.DatetimeUTC}] = w
	}

	genTimestamp := r.now().UTC()
	var cleaned []entity.CleanedRecord
	for _, agg := range aggregated {
		w, ok := weatherIndex[weatherKey{city: agg.City, hour: agg.DatetimeFromUTC}]
		if !ok {
			continue
		}

		ordinal := len(cleaned)
		cleaned = append(cleaned, entity.CleanedRecord{
			UniqueID:        uniqueID(ordinal, agg.City, agg.ParameterName, agg.DatetimeFromUTC),
			City:            agg.City,
			ParameterName:   agg.ParameterName,
			ParameterUnits:  agg.ParameterUnits,
			SensorID:        agg.SensorID,
			StationName:     agg.StationName,
			Latitude:        agg.Latitude,
			Longitude:       agg.Longitude,
			Value:           agg.Value,
			SummaryAvg:      agg.SummaryAvg,
			DatetimeFromUTC: agg.DatetimeFromUTC,
			DatetimeToUTC:   agg.DatetimeToUTC,

			Temperature2M:       w.Temperature2M,
			ApparentTemperature: w.ApparentTemperature,
			DewPoint2M:          w.DewPoint2M,
			RelativeHumidity2M:  w.RelativeHumidity2M,
			Precipitation:       w.Precipitation,
			WindSpeed10M:        w.WindSpeed10M,
			WindDirection10M:    w.WindDirection10M,
			WindGusts10M:        w.WindGusts10M,
			CloudCover:          w.CloudCover,
			ShortwaveRadiation:  w.ShortwaveRadiation,
			SnowDepth:           w.SnowDepth,
			SurfacePressure:     w.SurfacePressure,
			PressureMSL:         w.PressureMSL,
			UVIndex:             w.UVIndex,

			Temperature2MMean:       w.Temperature2MMean,
			ApparentTemperatureMean: w.ApparentTemperatureMean,
			WeatherCode:             w.WeatherCode,
			SunriseLocal:            w.SunriseLocal,
			SunsetLocal:             w.SunsetLocal,

			GenTimestamp: genTimestamp,
		})
	}
	return cleaned
}

// uniqueID derives the stable synthetic key for one cleaned row: a truncated
// SHA-256 over the run-local ordinal, city, parameter and source timestamp.
func uniqueID(ordinal int, city, parameter string, ts time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s", ordinal, city, parameter, ts.Format(time.RFC3339))))
	return hex.EncodeToString(sum[:])[:uniqueIDLength]
}

// coerceUTC parses an RFC 3339 timestamp and normalizes it to UTC. An empty
// or malformed value coerces to the zero time, the row-level missing marker.
func coerceUTC(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
