package env

// Barometer represents a single compensated BMP180 measurement.
type Barometer struct {
	Temperature float64 `json:"temp_c"`       // °C
	Pressure    float64 `json:"pressure_hpa"` // hPa
	Altitude    float64 `json:"altitude_m"`   // m above the sea-level reference
}
