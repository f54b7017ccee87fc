package utils

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Coordinate represents a geographic coordinate with latitude and longitude
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts the coordinate to an orb point (lng, lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// Validate checks the coordinate is within the valid lat/lng ranges.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", c.Lng)
	}
	return nil
}

// DistanceMeters returns the great-circle distance between two coordinates.
func DistanceMeters(a, b Coordinate) float64 {
	return geo.Distance(a.Point(), b.Point())
}

// WithinRadius reports whether point lies within radiusMeters of center.
func WithinRadius(point, center Coordinate, radiusMeters float64) bool {
	return DistanceMeters(point, center) <= radiusMeters
}
