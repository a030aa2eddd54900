package geometry

import "github.com/tidwall/geodesic"

// DefaultHalfSideKM gives the 1 km survey square used by the field collection tool.
const DefaultHalfSideKM = 0.5

// Ring is a closed linear ring of [x, y] pairs. For geographic rings x is the
// longitude and y the latitude.
type Ring [][]float64

// BoundingBox returns the axis-aligned box reached by walking halfSideKM from
// the center towards north, south, east and west along WGS84 geodesics.
func BoundingBox(lat, lon, halfSideKM float64) (minLat, minLon, maxLat, maxLon float64) {
	if halfSideKM == 0 {
		return lat, lon, lat, lon
	}
	meters := halfSideKM * 1000

	northLat, _ := destination(lat, lon, 0, meters)
	southLat, _ := destination(lat, lon, 180, meters)
	_, eastLon := destination(lat, lon, 90, meters)
	_, westLon := destination(lat, lon, 270, meters)

	return southLat, westLon, northLat, eastLon
}

// SurveyRing builds the survey footprint as a closed ring in (lon, lat)
// order: SW, SE, NE, NW and back to SW.
func SurveyRing(lat, lon, halfSideKM float64) Ring {
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, halfSideKM)
	return Ring{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}
}

func destination(lat, lon, bearing, meters float64) (float64, float64) {
	var lat2, lon2 float64
	geodesic.WGS84.Direct(lat, lon, bearing, meters, &lat2, &lon2, nil)
	return lat2, lon2
}
