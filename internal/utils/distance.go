package utils

import "math"

const earthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineKm returns the great-circle distance between two points in kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BoundingBox returns the lat/lon rectangle that contains every point within
// radiusKm of the centre. It is a coarse prefilter for HaversineKm.
func BoundingBox(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	cosLat := math.Cos(toRadians(lat))
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = math.Min(180, dLat/cosLat)
	}
	return lat - dLat, lat + dLat, lon - dLon, lon + dLon
}
