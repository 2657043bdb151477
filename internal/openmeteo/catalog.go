package openmeteo

// HourlyVariables is the fixed catalog of hourly weather variables requested
// per city. The decoder resolves each returned series by name and verifies
// the response carries every requested variable, so changing this catalog
// cannot silently misassign columns downstream.
var HourlyVariables = []string{
	"temperature_2m",
	"apparent_temperature",
	"dew_point_2m",
	"relative_humidity_2m",
	"precipitation",
	"wind_speed_10m",
	"wind_direction_10m",
	"wind_gusts_10m",
	"cloud_cover",
	"shortwave_radiation",
	"snow_depth",
	"surface_pressure",
	"pressure_msl",
	"uv_index",
}

// DailyVariables is the fixed catalog of daily weather variables requested
// per city. Sunrise and sunset arrive as epoch seconds.
var DailyVariables = []string{
	"temperature_2m_mean",
	"apparent_temperature_mean",
	"sunset",
	"sunrise",
	"weather_code",
}
