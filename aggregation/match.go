package aggregation

import (
	"math"
	"strings"

	"geolert/types"
)

const earthRadiusM = 6371000.0

// haversineDistanceMeters calculates the great-circle distance between two
// points on the earth (specified in decimal degrees).
func haversineDistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	radLat1 := lat1 * math.Pi / 180
	radLon1 := lon1 * math.Pi / 180
	radLat2 := lat2 * math.Pi / 180
	radLon2 := lon2 * math.Pi / 180

	deltaLat := radLat2 - radLat1
	deltaLon := radLon2 - radLon1

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(radLat1)*math.Cos(radLat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// sameLocationName compares free-text place names ignoring case and
// surrounding whitespace.
func sameLocationName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// matches decides whether a report extends an open incident. Types must be
// identical; then either both sides lack coordinates and the place names are
// equal, or both have coordinates within radiusMeters of each other.
// A coordinate mismatch (one side located, the other not) never matches.
func matches(inc types.Incident, r types.RawReport, radiusMeters float64) bool {
	if inc.DisasterType != r.DisasterType {
		return false
	}

	switch {
	case inc.Coordinates == nil && r.Coordinates == nil:
		return sameLocationName(inc.Location, r.Location)
	case inc.Coordinates != nil && r.Coordinates != nil:
		dist := haversineDistanceMeters(
			inc.Coordinates.Lat, inc.Coordinates.Lng,
			r.Coordinates.Lat, r.Coordinates.Lng)
		return dist <= radiusMeters
	}
	return false
}
