package weather

import "fmt"

const (
	// MPHPerMeterPerSecond converts m/s to mph.
	MPHPerMeterPerSecond = 2.23694

	// SecondsPerHour converts a per-second rate to a per-hour rate.
	SecondsPerHour = 3600
)

// MetersPerSecondToMPH converts a wind speed from m/s to mph.
func MetersPerSecondToMPH(v float64) float64 {
	return v * MPHPerMeterPerSecond
}

// MPHToMetersPerSecond converts a wind speed from mph to m/s.
func MPHToMetersPerSecond(v float64) float64 {
	return v / MPHPerMeterPerSecond
}

// PerSecondToPerHour converts a rain rate from mm/s to mm/hr.
func PerSecondToPerHour(v float64) float64 {
	return v * SecondsPerHour
}

// CompassPoints lists the compass labels in display order.
var CompassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// compassTable maps the vane's raw degrees to compass points. The vane is
// mounted rotated, so the table does not follow the usual 0=N convention.
var compassTable = map[float64]string{
	225: "N",
	180: "NW",
	135: "W",
	90:  "SW",
	45:  "S",
	0:   "SE",
	315: "E",
	270: "NE",
}

// CompassPoint converts a raw vane reading in degrees to its compass label.
func CompassPoint(deg float64) (string, error) {
	if p, ok := compassTable[deg]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %v degrees", ErrUnmappableDirection, deg)
}

// IsCompassDegree reports whether deg is one of the vane's eight positions.
func IsCompassDegree(deg float64) bool {
	_, ok := compassTable[deg]
	return ok
}
