package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// earthRadiusM radius bumi dalam meter
const earthRadiusM = 6371000.0

type Coordinate struct {
	Lat float64
	Lon float64
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

// Valid lat di [-90, 90], lon di [-180, 180].
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Location lat lon dalam radian
type Location struct {
	Latitude  float64
	Longitude float64
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func NewLocation(latDegree, lonDegree float64) Location {
	return Location{
		Latitude:  degreeToRadians(latDegree),
		Longitude: degreeToRadians(lonDegree),
	}
}

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func havFormula(one, two Location) float64 {
	havLat := havFunction(one.Latitude - two.Latitude)
	havLon := havFunction(one.Longitude - two.Longitude)
	return havLat + math.Cos(one.Latitude)*math.Cos(two.Latitude)*havLon
}

func archaversine(havAngle float64) float64 {
	return 2.0 * math.Asin(math.Sqrt(havAngle))
}

// HaversineDistance great-circle distance dalam meter.
func HaversineDistance(one, two Location) float64 {
	return earthRadiusM * archaversine(havFormula(one, two))
}

// DistanceMeters great-circle distance antara dua koordinat derajat, dalam meter.
func DistanceMeters(a, b Coordinate) float64 {
	return HaversineDistance(NewLocation(a.Lat, a.Lon), NewLocation(b.Lat, b.Lon))
}

// S2DistanceMeters jarak sudut s2 dikali radius bumi. dipakai untuk ranking snap.
func S2DistanceMeters(a, b Coordinate) float64 {
	pa := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	pb := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	return pa.Distance(pb).Radians() * earthRadiusM
}
