package entity

import "time"

// CleanedRecord is the pipeline's sole output artifact: one row per
// (city, parameter, hour), carrying the full merged weather context for that
// city and hour joined with the aggregated air-quality observation. UniqueID
// is a stable synthetic primary key derived from a run-local ordinal, city,
// parameter and source timestamp; GenTimestamp records when the record was
// materialized.
type CleanedRecord struct {
	UniqueID string `gorm:"column:unique_id;primaryKey;size:12"`

	City            string    `gorm:"column:city"`
	ParameterName   string    `gorm:"column:parameter_name"`
	ParameterUnits  string    `gorm:"column:parameter_units"`
	SensorID        int64     `gorm:"column:sensor_id"`
	StationName     string    `gorm:"column:station_name"`
	Latitude        float64   `gorm:"column:latitude"`
	Longitude       float64   `gorm:"column:longitude"`
	Value           float64   `gorm:"column:value"`
	SummaryAvg      float64   `gorm:"column:summary_avg"`
	DatetimeFromUTC time.Time `gorm:"column:datetime_from_utc"`
	DatetimeToUTC   time.Time `gorm:"column:datetime_to_utc"`

	Temperature2M       float64 `gorm:"column:temperature_2m"`
	ApparentTemperature float64 `gorm:"column:apparent_temperature"`
	DewPoint2M          float64 `gorm:"column:dew_point_2m"`
	RelativeHumidity2M  float64 `gorm:"column:relative_humidity_2m"`
	Precipitation       float64 `gorm:"column:precipitation"`
	WindSpeed10M        float64 `gorm:"column:wind_speed_10m"`
	WindDirection10M    float64 `gorm:"column:wind_direction_10m"`
	WindGusts10M        float64 `gorm:"column:wind_gusts_10m"`
	CloudCover          float64 `gorm:"column:cloud_cover"`
	ShortwaveRadiation  float64 `gorm:"column:shortwave_radiation"`
	SnowDepth           float64 `gorm:"column:snow_depth"`
	SurfacePressure     float64 `gorm:"column:surface_pressure"`
	PressureMSL         float64 `gorm:"column:pressure_msl"`
	UVIndex             float64 `gorm:"column:uv_index"`

	Temperature2MMean       *float64   `gorm:"column:temperature_2m_mean"`
	ApparentTemperatureMean *float64   `gorm:"column:apparent_temperature_mean"`
	WeatherCode             *float64   `gorm:"column:weather_code"`
	SunriseLocal            *time.Time `gorm:"column:sunrise_local"`
	SunsetLocal             *time.Time `gorm:"column:sunset_local"`

	GenTimestamp time.Time `gorm:"column:gen_timestamp"`
}

// TableName specifies the destination table for CleanedRecord.
func (CleanedRecord) TableName() string {
	return "daily_weather"
}

// ColumnType is the semantic type of a cleaned-table column. The load
// boundary works from this declared schema instead of guessing types from
// sampled values.
type ColumnType string

const (
	ColumnInteger   ColumnType = "integer"
	ColumnFloat     ColumnType = "float"
	ColumnTimestamp ColumnType = "timestamp"
	ColumnText      ColumnType = "text"
)

// Column is one declared column of the cleaned table.
type Column struct {
	Name string
	Type ColumnType
	// Nullable marks columns that come from the daily side of the weather
	// left join and may be absent.
	Nullable bool
}

// CleanedColumns returns the declared cleaned-table schema in the fixed
// lexical column order the table is emitted in.
func CleanedColumns() []Column {
	return []Column{
		{Name: "apparent_temperature", Type: ColumnFloat},
		{Name: "apparent_temperature_mean", Type: ColumnFloat, Nullable: true},
		{Name: "city", Type: ColumnText},
		{Name: "cloud_cover", Type: ColumnFloat},
		{Name: "datetime_from_utc", Type: ColumnTimestamp},
		{Name: "datetime_to_utc", Type: ColumnTimestamp},
		{Name: "dew_point_2m", Type: ColumnFloat},
		{Name: "gen_timestamp", Type: ColumnTimestamp},
		{Name: "latitude", Type: ColumnFloat},
		{Name: "longitude", Type: ColumnFloat},
		{Name: "parameter_name", Type: ColumnText},
		{Name: "parameter_units", Type: ColumnText},
		{Name: "precipitation", Type: ColumnFloat},
		{Name: "pressure_msl", Type: ColumnFloat},
		{Name: "relative_humidity_2m", Type: ColumnFloat},
		{Name: "sensor_id", Type: ColumnInteger},
		{Name: "shortwave_radiation", Type: ColumnFloat},
		{Name: "snow_depth", Type: ColumnFloat},
		{Name: "station_name", Type: ColumnText},
		{Name: "summary_avg", Type: ColumnFloat},
		{Name: "sunrise_local", Type: ColumnTimestamp, Nullable: true},
		{Name: "sunset_local", Type: ColumnTimestamp, Nullable: true},
		{Name: "surface_pressure", Type: ColumnFloat},
		{Name: "temperature_2m", Type: ColumnFloat},
		{Name: "temperature_2m_mean", Type: ColumnFloat, Nullable: true},
		{Name: "unique_id", Type: ColumnText},
		{Name: "uv_index", Type: ColumnFloat},
		{Name: "value", Type: ColumnFloat},
		{Name: "weather_code", Type: ColumnFloat, Nullable: true},
		{Name: "wind_direction_10m", Type: ColumnFloat},
		{Name: "wind_gusts_10m", Type: ColumnFloat},
		{Name: "wind_speed_10m", Type: ColumnFloat},
	}
}

// CleanedRecordArchive is the Parquet projection of CleanedRecord used by the
// snapshot export. Timestamps are epoch milliseconds; daily-side fields are
// optional.
type CleanedRecordArchive struct {
	UniqueID        string  `parquet:"name=unique_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	City            string  `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	ParameterName   string  `parquet:"name=parameter_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ParameterUnits  string  `parquet:"name=parameter_units, type=BYTE_ARRAY, convertedtype=UTF8"`
	SensorID        int64   `parquet:"name=sensor_id, type=INT64"`
	StationName     string  `parquet:"name=station_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude        float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude       float64 `parquet:"name=longitude, type=DOUBLE"`
	Value           float64 `parquet:"name=value, type=DOUBLE"`
	SummaryAvg      float64 `parquet:"name=summary_avg, type=DOUBLE"`
	DatetimeFromUTC int64   `parquet:"name=datetime_from_utc, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	DatetimeToUTC   int64   `parquet:"name=datetime_to_utc, type=INT64, convertedtype=TIMESTAMP_MILLIS"`

	Temperature2M       float64 `parquet:"name=temperature_2m, type=DOUBLE"`
	ApparentTemperature float64 `parquet:"name=apparent_temperature, type=DOUBLE"`
	DewPoint2M          float64 `parquet:"name=dew_point_2m, type=DOUBLE"`
	RelativeHumidity2M  float64 `parquet:"name=relative_humidity_2m, type=DOUBLE"`
	Precipitation       float64 `parquet:"name=precipitation, type=DOUBLE"`
	WindSpeed10M        float64 `parquet:"name=wind_speed_10m, type=DOUBLE"`
	WindDirection10M    float64 `parquet:"name=wind_direction_10m, type=DOUBLE"`
	WindGusts10M        float64 `parquet:"name=wind_gusts_10m, type=DOUBLE"`
	CloudCover          float64 `parquet:"name=cloud_cover, type=DOUBLE"`
	ShortwaveRadiation  float64 `parquet:"name=shortwave_radiation, type=DOUBLE"`
	SnowDepth           float64 `parquet:"name=snow_depth, type=DOUBLE"`
	SurfacePressure     float64 `parquet:"name=surface_pressure, type=DOUBLE"`
	PressureMSL         float64 `parquet:"name=pressure_msl, type=DOUBLE"`
	UVIndex             float64 `parquet:"name=uv_index, type=DOUBLE"`

	Temperature2MMean       *float64 `parquet:"name=temperature_2m_mean, type=DOUBLE, repetitiontype=OPTIONAL"`
	ApparentTemperatureMean *float64 `parquet:"name=apparent_temperature_mean, type=DOUBLE, repetitiontype=OPTIONAL"`
	WeatherCode             *float64 `parquet:"name=weather_code, type=DOUBLE, repetitiontype=OPTIONAL"`
	SunriseLocal            *int64   `parquet:"name=sunrise_local, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`
	SunsetLocal             *int64   `parquet:"name=sunset_local, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`

	GenTimestamp int64 `parquet:"name=gen_timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// ToArchive converts the record into its Parquet projection.
func (r CleanedRecord) ToArchive() CleanedRecordArchive {
	a := CleanedRecordArchive{
		UniqueID:            r.UniqueID,
		City:                r.City,
		ParameterName:       r.ParameterName,
		ParameterUnits:      r.ParameterUnits,
		SensorID:            r.SensorID,
		StationName:         r.StationName,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		Value:               r.Value,
		SummaryAvg:          r.SummaryAvg,
		DatetimeFromUTC:     r.DatetimeFromUTC.UnixMilli(),
		DatetimeToUTC:       r.DatetimeToUTC.UnixMilli(),
		Temperature2M:       r.Temperature2M,
		ApparentTemperature: r.ApparentTemperature,
		DewPoint2M:          r.DewPoint2M,
		RelativeHumidity2M:  r.RelativeHumidity2M,
		Precipitation:       r.Precipitation,
		WindSpeed10M:        r.WindSpeed10M,
		WindDirection10M:    r.WindDirection10M,
		WindGusts10M:        r.WindGusts10M,
		CloudCover:          r.CloudCover,
		ShortwaveRadiation:  r.ShortwaveRadiation,
		SnowDepth:           r.SnowDepth,
		SurfacePressure:     r.SurfacePressure,
		PressureMSL:         r.PressureMSL,
		UVIndex:             r.UVIndex,
		GenTimestamp:        r.GenTimestamp.UnixMilli(),
	}
	a.Temperature2MMean = r.Temperature2MMean
	a.ApparentTemperatureMean = r.ApparentTemperatureMean
	a.WeatherCode = r.WeatherCode
	if r.SunriseLocal != nil {
		ms := r.SunriseLocal.UnixMilli()
		a.SunriseLocal = &ms
	}
	if r.SunsetLocal != nil {
		ms := r.SunsetLocal.UnixMilli()
		a.SunsetLocal = &ms
	}
	return a
}
