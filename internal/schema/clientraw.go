package schema

// Shared sentinel policies for the clientraw family of layouts. The station
// firmware reuses a handful of conventions: -100 for "never measured",
// physically impossible magnitudes for disconnected sensors.
var (
	tempRange     = SentinelPolicy{Min: -60, Max: 60, Sentinels: []float64{-100}}
	humidityRange = SentinelPolicy{Min: 0, Max: 100, Sentinels: []float64{-100}}
	pressureRange = SentinelPolicy{Min: 800, Max: 1200, Sentinels: []float64{-100}}
	windRange     = SentinelPolicy{Min: 0, Max: 120}
	dirRange      = SentinelPolicy{Min: 0, Max: 360}
	rainRange     = SentinelPolicy{Min: 0, Max: 1500}
	solarRange    = SentinelPolicy{Min: 0, Max: 2000, Sentinels: []float64{-100}}
	uvRange       = SentinelPolicy{Min: 0, Max: 640, Sentinels: []float64{-100}}
	percent       = SentinelPolicy{Min: 0, Max: 100}
	noData        = SentinelPolicy{Sentinels: []float64{-100}}
)

// ClientRawV1 is the packet layout the station has published since the 2019
// firmware. Field meaning is positional; this table is the single source of
// truth for offsets.
var ClientRawV1 = register(NewTable("clientraw/v1", []FieldDescriptor{
	{Name: "station_id", Index: 0, Kind: Int},
	{Name: "wind_speed", Index: 1, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "wind_gust", Index: 2, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "wind_dir", Index: 3, Unit: "deg", Kind: Float, Sentinel: dirRange},
	{Name: "out_temp", Index: 4, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "out_hum", Index: 5, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "barometer", Index: 6, Unit: "hPa", Kind: Float, Sentinel: pressureRange},
	{Name: "day_rain", Index: 7, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "radiation", Index: 8, Unit: "W/m2", Kind: Float, Sentinel: solarRange},
	{Name: "uv_raw", Index: 9, Kind: Float, Sentinel: uvRange},
	{Name: "rain_last_hour", Index: 10, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "rain_last_24h", Index: 11, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "in_temp", Index: 12, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "in_hum", Index: 13, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "battery_level", Index: 14, Unit: "%", Kind: Float, Sentinel: percent},
	{Name: "forecast_icon", Index: 15, Kind: Int},
	{Name: "heat_index", Index: 16, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "wind_chill", Index: 17, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "thsw_index", Index: 18, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "dew_point", Index: 19, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "yesterday_max_temp", Index: 20, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "yesterday_min_temp", Index: 21, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "yesterday_max_hum", Index: 22, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "yesterday_min_hum", Index: 23, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "yesterday_max_pressure", Index: 24, Unit: "hPa", Kind: Float, Sentinel: pressureRange},
	{Name: "yesterday_min_pressure", Index: 25, Unit: "hPa", Kind: Float, Sentinel: pressureRange},
	{Name: "yesterday_max_solar", Index: 26, Unit: "W/m2", Kind: Float, Sentinel: solarRange},
	{Name: "yesterday_min_solar", Index: 27, Unit: "W/m2", Kind: Float, Sentinel: solarRange},
	{Name: "yesterday_max_uv", Index: 28, Kind: Float, Sentinel: uvRange},
	{Name: "measurement_hour", Index: 29, Kind: Int, Sentinel: SentinelPolicy{Min: 0, Max: 23}},
	{Name: "measurement_minute", Index: 30, Kind: Int, Sentinel: SentinelPolicy{Min: 0, Max: 59}},
	{Name: "measurement_second", Index: 31, Kind: Int, Sentinel: SentinelPolicy{Min: 0, Max: 59}},
	{Name: "location_label", Index: 32, Kind: String},
	{Name: "sensor_flags", Index: 33, Kind: Int},
	{Name: "communication_status", Index: 34, Kind: Int},
	{Name: "receiver_temp", Index: 35, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "receiver_hum", Index: 36, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "storm_rain", Index: 37, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "rain_rate_10min", Index: 38, Unit: "mm/h", Kind: Float, Sentinel: rainRange},
	{Name: "sunrise_flag", Index: 39, Kind: Int},
	{Name: "sunset_flag", Index: 40, Kind: Int},
	{Name: "light_percent", Index: 41, Unit: "%", Kind: Int, Sentinel: percent},
	{Name: "uv_percent", Index: 42, Unit: "%", Kind: Int, Sentinel: percent},
	{Name: "max_temp_today", Index: 43, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "min_temp_today", Index: 44, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "max_temp_1h", Index: 45, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "min_temp_1h", Index: 46, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "humid_index_today", Index: 47, Kind: Float},
	{Name: "sky_condition", Index: 48, Kind: String},
	{Name: "rain_accum_percent", Index: 49, Unit: "%", Kind: Float, Sentinel: percent},
	{Name: "wind_speed_percent", Index: 50, Unit: "%", Kind: Int, Sentinel: percent},
	{Name: "wind_gust_percent", Index: 51, Unit: "%", Kind: Int, Sentinel: percent},
	{Name: "battery_flag", Index: 52, Kind: Int},
	{Name: "sensor_flag_1", Index: 53, Kind: Int},
	{Name: "sensor_flag_2", Index: 54, Kind: Int},
	{Name: "sensor_flag_3", Index: 55, Kind: Int},
	{Name: "sensor_flag_4", Index: 56, Kind: Int},
	{Name: "maintenance_required", Index: 57, Kind: Int},
	{Name: "diagnostic_code", Index: 58, Kind: Int},
	{Name: "last_service_interval", Index: 59, Unit: "days", Kind: Int},
	{Name: "avg_temp_24h", Index: 60, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "avg_hum_24h", Index: 61, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "baro_rise_3h", Index: 62, Unit: "hPa", Kind: Float, Sentinel: noData},
	{Name: "current_date", Index: 63, Kind: String},
	{Name: "last_hour_max_temp", Index: 64, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "last_hour_min_temp", Index: 65, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "last_hour_avg_hum", Index: 66, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "last_hour_max_solar", Index: 67, Unit: "W/m2", Kind: Float, Sentinel: solarRange},
	{Name: "last_hour_min_solar", Index: 68, Unit: "W/m2", Kind: Float, Sentinel: solarRange},
	{Name: "last_hour_max_uv", Index: 69, Kind: Float, Sentinel: uvRange},
	{Name: "forecast_max_temp_day1", Index: 70, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_min_temp_day1", Index: 71, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_precip_day1", Index: 72, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "forecast_wind_speed_day1", Index: 73, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "forecast_wind_gust_day1", Index: 74, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "max_temp_7d", Index: 75, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "min_temp_7d", Index: 76, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "avg_temp_7d", Index: 77, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "max_hum_7d", Index: 78, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "min_hum_7d", Index: 79, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "avg_hum_7d", Index: 80, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "battery_voltage_mv", Index: 81, Unit: "mV", Kind: Float},
	{Name: "battery_voltage", Index: 82, Unit: "V", Kind: Float},
	{Name: "forecast_max_temp_day2", Index: 83, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_min_temp_day2", Index: 84, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_precip_day2", Index: 85, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "forecast_wind_speed_day2", Index: 86, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "forecast_wind_gust_day2", Index: 87, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "forecast_max_temp_day3", Index: 88, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_min_temp_day3", Index: 89, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_precip_day3", Index: 90, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "forecast_wind_speed_day3", Index: 91, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "forecast_max_temp_day4", Index: 92, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_min_temp_day4", Index: 93, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_precip_day4", Index: 94, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "forecast_wind_speed_day4", Index: 95, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "forecast_wind_gust_day4", Index: 96, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "forecast_max_temp_day5", Index: 97, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_min_temp_day5", Index: 98, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "forecast_precip_day5", Index: 99, Unit: "mm", Kind: Float, Sentinel: rainRange},
	{Name: "today_max_temp", Index: 100, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "today_min_temp", Index: 101, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "today_avg_temp", Index: 102, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "today_avg_hum", Index: 103, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "today_peak_wind_speed", Index: 104, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "today_peak_wind_gust", Index: 105, Unit: "m/s", Kind: Float, Sentinel: windRange},
	{Name: "seasonal_max_temp", Index: 106, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "seasonal_min_temp", Index: 107, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "latitude", Index: 108, Unit: "deg", Kind: Float, Sentinel: SentinelPolicy{Min: -90, Max: 90}},
	{Name: "longitude", Index: 109, Unit: "deg", Kind: Float, Sentinel: SentinelPolicy{Min: -180, Max: 180}},
	{Name: "soil_moisture_1", Index: 110, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "soil_temp_1", Index: 111, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "soil_moisture_2", Index: 112, Unit: "%", Kind: Float, Sentinel: humidityRange},
	{Name: "soil_temp_2", Index: 113, Unit: "C", Kind: Float, Sentinel: tempRange},
	{Name: "leaf_wetness", Index: 114, Kind: String},
	{Name: "lighting_detection_time", Index: 115, Kind: String},
	{Name: "last_light_sensor_update", Index: 116, Kind: String},
	{Name: "last_soil_sensor_update", Index: 117, Kind: String},
	{Name: "leaf_wetness_raw", Index: 118, Kind: Float, Sentinel: SentinelPolicy{Min: 0, Max: 255}},
	{Name: "appliance_power_status", Index: 119, Kind: Int},
	{Name: "debug_counter", Index: 120, Kind: Int},
	{Name: "serial_crc", Index: 121, Kind: Int},
	{Name: "firmware_version", Index: 122, Kind: String},
	{Name: "end_of_packet_marker", Index: 123, Kind: String},
}))
