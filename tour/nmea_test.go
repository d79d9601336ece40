package tour

import (
	"strings"
	"testing"
	"time"
)

func TestCalculateChecksum(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		expected string
	}{
		{
			name:     "Simple GGA sentence",
			sentence: "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,",
			expected: "47",
		},
		{
			name:     "Simple RMC sentence",
			sentence: "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
			expected: "6A",
		},
		{
			name:     "Empty fields",
			sentence: "$GPGGA,,,,,,,,,,,,,,,",
			expected: "7A",
		},
		{
			name:     "Single character after $",
			sentence: "$A",
			expected: "41",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculateChecksum(tt.sentence)
			if result != tt.expected {
				t.Errorf("calculateChecksum(%q) = %q, want %q", tt.sentence, result, tt.expected)
			}
		})
	}
}

func TestFormatNMEA(t *testing.T) {
	sentence := "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"
	expected := sentence + "*6A\r\n"
	if result := formatNMEA(sentence); result != expected {
		t.Errorf("formatNMEA(%q) = %q, want %q", sentence, result, expected)
	}
}

func TestNMEACoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		expected string
	}{
		{"San Francisco", 37.7749, -122.4194, "3746.4940,N,12225.1640,W"},
		{"Origin", 0, 0, "0000.0000,N,00000.0000,E"},
		{"Sydney", -33.5, 151.25, "3330.0000,S,15115.0000,E"},
		{"Past the pole", 90.03, 0, "9000.0000,N,00000.0000,E"},
		{"Past the antimeridian", 10, 180.5, "1000.0000,N,17930.0000,W"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := nmeaCoordinates(tt.lat, tt.lon)
			if result != tt.expected {
				t.Errorf("nmeaCoordinates(%v, %v) = %q, want %q", tt.lat, tt.lon, result, tt.expected)
			}
		})
	}
}

func testUpdate() LocationUpdate {
	return LocationUpdate{
		Latitude:  37.7749,
		Longitude: -122.4194,
		Speed:     -18.52,
		Course:    90.0,
		Timestamp: time.Date(2024, 12, 24, 10, 30, 45, 0, time.UTC),
	}
}

func TestGenerateGGA(t *testing.T) {
	result := generateGGA(testUpdate())

	if !strings.HasPrefix(result, "$GPGGA,103045,3746.4940,N,12225.1640,W,1,08,") {
		t.Errorf("generateGGA has unexpected fields, got: %s", result)
	}
	if !strings.Contains(result, "*") || !strings.HasSuffix(result, "\r\n") {
		t.Errorf("generateGGA should end with checksum and CRLF, got: %s", result)
	}
}

func TestGenerateRMC(t *testing.T) {
	result := generateRMC(testUpdate())

	if !strings.HasPrefix(result, "$GPRMC,103045,A,") {
		t.Errorf("generateRMC should start with time and active status, got: %s", result)
	}
	if !strings.Contains(result, "3746.4940,N,12225.1640,W") {
		t.Errorf("generateRMC should contain coordinates, got: %s", result)
	}
	if !strings.Contains(result, ",10.0,90.0,241224,") {
		t.Errorf("generateRMC should contain speed in knots, course and date, got: %s", result)
	}
}

func TestGenerateVTG(t *testing.T) {
	result := generateVTG(testUpdate())

	expectedPrefix := "$GPVTG,90.0,T,,M,10.0,N,18.5,K,A*"
	if !strings.HasPrefix(result, expectedPrefix) {
		t.Errorf("generateVTG = %q, want prefix %q", result, expectedPrefix)
	}
}

func TestNMEASentences(t *testing.T) {
	sentences := NMEASentences(testUpdate())
	if len(sentences) != 3 {
		t.Fatalf("NMEASentences returned %d sentences, want 3", len(sentences))
	}

	for i, prefix := range []string{"$GPGGA,", "$GPRMC,", "$GPVTG,"} {
		if !strings.HasPrefix(sentences[i], prefix) {
			t.Errorf("sentence %d should start with %s, got: %s", i, prefix, sentences[i])
		}
		body := strings.TrimSuffix(sentences[i], "\r\n")
		star := strings.LastIndex(body, "*")
		if star < 0 {
			t.Fatalf("sentence %d has no checksum: %s", i, body)
		}
		if got := calculateChecksum(body[:star]); got != body[star+1:] {
			t.Errorf("sentence %d checksum = %s, want %s", i, body[star+1:], got)
		}
	}
}
