package tour

import (
	"fmt"
	"math"
	"strconv"
)

// FormatETA renders an ETA in hours: "--:--" when unknown, hours from one
// hour upwards, minutes below that.
func FormatETA(hours float64) string {
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return "--:--"
	}
	if hours >= 1 {
		return fmt.Sprintf("%.1f h", hours)
	}
	return fmt.Sprintf("%d min", int(math.Round(hours*60)))
}

// FormatDistance renders a distance in km the way the tracker shows it
func FormatDistance(km float64) string {
	if km >= 1000 {
		return fmt.Sprintf("%.1fk km away", km/1000)
	}
	return fmt.Sprintf("%d km away", int(km))
}

// FormatSpeed renders a speed as a thousands-grouped integer
func FormatSpeed(kmh float64) string {
	return groupThousands(int64(kmh)) + " km/h"
}

// FormatLocation renders the location line: name, rounded position and,
// when a destination is set, the distance to it.
func FormatLocation(update LocationUpdate) string {
	latHem, lonHem := "N", "E"
	lat, lon := update.Latitude, update.Longitude
	if lat < 0 {
		latHem, lat = "S", -lat
	}
	if lon < 0 {
		lonHem, lon = "W", -lon
	}

	text := fmt.Sprintf("%s (%.1f°%s, %.1f°%s)", update.LocationName, lat, latHem, lon, lonHem)
	if update.DistanceFromUser != nil {
		text += " - " + FormatDistance(*update.DistanceFromUser)
	}
	return text
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + string(out)
}
