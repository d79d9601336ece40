package tour

import "math"

// EarthRadiusKm is the mean Earth radius used by the Haversine formula
const EarthRadiusKm = 6371.0

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

// Distance calculates the great-circle distance in kilometers between two points
// given in decimal degrees, using the Haversine formula and EarthRadiusKm.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceWithRadius(lat1, lon1, lat2, lon2, EarthRadiusKm)
}

// DistanceWithRadius is Distance on a sphere of the given radius. The result
// has the unit of radius.
func DistanceWithRadius(lat1, lon1, lat2, lon2, radius float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radius * c
}

// ETA returns the travel time in hours for distance at speed. Speeds that are
// not positive yield 0, meaning unknown.
func ETA(distance, speed float64) float64 {
	if speed <= 0 {
		return 0
	}
	return distance / speed
}

// Bearing calculates the initial bearing from point 1 to point 2 in degrees (0-360)
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLonRad := toRadians(lon2 - lon1)

	y := math.Sin(deltaLonRad) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLonRad)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	if bearing < 0 {
		bearing += 360
	}
	return bearing
}
