package entity

import "time"

// HourlyWeather is one fixed-cadence hourly observation for a city, decoded
// from the Open-Meteo forecast response. All timestamps are UTC.
type HourlyWeather struct {
	City        string
	DatetimeUTC time.Time

	Temperature2M       float64
	ApparentTemperature float64
	DewPoint2M          float64
	RelativeHumidity2M  float64
	Precipitation       float64
	WindSpeed10M        float64
	WindDirection10M    float64
	WindGusts10M        float64
	CloudCover          float64
	ShortwaveRadiation  float64
	SnowDepth           float64
	SurfacePressure     float64
	PressureMSL         float64
	UVIndex             float64
}

// DailyWeather is one daily aggregate for a city. Date carries only the day
// (midnight UTC). Sunrise and sunset are epoch seconds as reported by the
// provider; the merge engine converts them to the city's local zone.
type DailyWeather struct {
	City string
	Date time.Time

	Temperature2MMean        float64
	ApparentTemperatureMean  float64
	SunriseEpoch             int64
	SunsetEpoch              int64
	WeatherCode              float64
}

// WeatherRecord is one merged hourly row: every hourly field plus the daily
// aggregates for the same (city, date). The merge is a left join of hourly
// onto daily, so the daily fields are pointers and stay nil when no daily
// aggregate exists for that date and city.
type WeatherRecord struct {
	City        string
	DatetimeUTC time.Time

	Temperature2M       float64
	ApparentTemperature float64
	DewPoint2M          float64
	RelativeHumidity2M  float64
	Precipitation       float64
	WindSpeed10M        float64
	WindDirection10M    float64
	WindGusts10M        float64
	CloudCover          float64
	ShortwaveRadiation  float64
	SnowDepth           float64
	SurfacePressure     float64
	PressureMSL         float64
	UVIndex             float64

	Temperature2MMean       *float64
	ApparentTemperatureMean *float64
	WeatherCode             *float64
	// SunriseLocal / SunsetLocal are display-only derived columns carried in
	// the city's local zone. Everything else is UTC.
	SunriseLocal *time.Time
	SunsetLocal  *time.Time
}
