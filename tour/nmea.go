package tour

import (
	"fmt"
	"math"
)

const kmhPerKnot = 1.852

// calculateChecksum calculates the NMEA checksum for a sentence
func calculateChecksum(sentence string) string {
	var checksum byte
	for i := 1; i < len(sentence); i++ { // Skip the '$' character
		checksum ^= sentence[i]
	}
	return fmt.Sprintf("%02X", checksum)
}

// formatNMEA formats a complete NMEA sentence with checksum
func formatNMEA(sentence string) string {
	checksum := calculateChecksum(sentence)
	return fmt.Sprintf("%s*%s\r\n", sentence, checksum)
}

// nmeaCoordinates converts decimal degrees to the DDMM.MMMM / DDDMM.MMMM
// fields of NMEA sentences. Jitter can push a fix past the pole or the
// antimeridian, so the position is normalised first.
func nmeaCoordinates(lat, lon float64) string {
	lat = math.Max(-90, math.Min(90, lat))
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}

	latDeg := int(math.Abs(lat))
	latMin := (math.Abs(lat) - float64(latDeg)) * 60
	latHem := "N"
	if lat < 0 {
		latHem = "S"
	}

	lonDeg := int(math.Abs(lon))
	lonMin := (math.Abs(lon) - float64(lonDeg)) * 60
	lonHem := "E"
	if lon < 0 {
		lonHem = "W"
	}

	return fmt.Sprintf("%02d%07.4f,%s,%03d%07.4f,%s", latDeg, latMin, latHem, lonDeg, lonMin, lonHem)
}

// NMEASentences renders a location update as GGA, RMC and VTG sentences.
// Signed speed noise is reported as its magnitude.
func NMEASentences(update LocationUpdate) []string {
	return []string{
		generateGGA(update),
		generateRMC(update),
		generateVTG(update),
	}
}

// generateGGA generates a GGA (Global Positioning System Fix Data) sentence
func generateGGA(update LocationUpdate) string {
	timeStr := update.Timestamp.UTC().Format("150405")

	sentence := fmt.Sprintf("$GPGGA,%s,%s,1,08,1.2,0.0,M,0.0,M,,",
		timeStr, nmeaCoordinates(update.Latitude, update.Longitude))
	return formatNMEA(sentence)
}

// generateRMC generates an RMC (Recommended Minimum) sentence
func generateRMC(update LocationUpdate) string {
	timeStr := update.Timestamp.UTC().Format("150405") // HHMMSS
	dateStr := update.Timestamp.UTC().Format("020106") // DDMMYY

	speedKnots := math.Abs(update.Speed) / kmhPerKnot

	sentence := fmt.Sprintf("$GPRMC,%s,A,%s,%.1f,%.1f,%s,,,A",
		timeStr, nmeaCoordinates(update.Latitude, update.Longitude),
		speedKnots, update.Course, dateStr)
	return formatNMEA(sentence)
}

// generateVTG generates a VTG (Track Made Good and Ground Speed) sentence
func generateVTG(update LocationUpdate) string {
	speedKmh := math.Abs(update.Speed)
	speedKnots := speedKmh / kmhPerKnot

	sentence := fmt.Sprintf("$GPVTG,%.1f,T,,M,%.1f,N,%.1f,K,A",
		update.Course, speedKnots, speedKmh)
	return formatNMEA(sentence)
}
