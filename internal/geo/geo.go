package geo

import (
	"errors"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/gamemaps/viewer/internal/model"
)

// MAP SPACE
// Markers are positioned in map pixel space: x to the right, y upward, origin at the
// bottom-left of the tiled background. The map library addresses the same plane as
// (lat, lng) = (row, column), so every crossing into library space swaps the axes.
// ToLatLng and FromLatLng are the only places that swap.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// LatLng is a position in the map library's (row, column) convention.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ToLatLng converts a map pixel position into library space.
func ToLatLng(p model.Point) LatLng {
	return LatLng{Lat: p.Y, Lng: p.X}
}

// FromLatLng converts a library position back into map pixel space.
func FromLatLng(ll LatLng) model.Point {
	return model.Point{X: ll.Lng, Y: ll.Lat}
}

// Dimensions returns the pixel size of the full tiled background.
func Dimensions(m model.GameMapMeta) (width, height float64) {
	return float64(m.TileWidth * m.TilesCountX), float64(m.TileHeight * m.TilesCountY)
}

// Center returns the initial viewport center in library space.
func Center(m model.GameMapMeta) LatLng {
	w, h := Dimensions(m)
	return ToLatLng(model.Point{X: w / 2, Y: h / 2})
}

// Bounds returns the map extent in pixel space.
func Bounds(m model.GameMapMeta) geom.Envelope {
	w, h := Dimensions(m)
	return geom.NewEnvelope(geom.XY{X: 0, Y: 0}, geom.XY{X: w, Y: h})
}

// BoundsLatLng returns the south-west and north-east corners in library space.
func BoundsLatLng(m model.GameMapMeta) [2]LatLng {
	w, h := Dimensions(m)
	return [2]LatLng{ToLatLng(model.Point{}), ToLatLng(model.Point{X: w, Y: h})}
}

// InBounds reports whether p lies on the map, edges included.
func InBounds(m model.GameMapMeta, p model.Point) bool {
	w, h := Dimensions(m)
	return p.X >= 0 && p.Y >= 0 && p.X <= w && p.Y <= h
}

// PointGeom converts a map position into a geometry point.
func PointGeom(p model.Point) geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Y},
			Type: geom.DimXY,
		},
	)
}

// PointFromString parses a string in the format "x,y" into a map position.
func PointFromString(coords string) (model.Point, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return model.Point{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return model.Point{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return model.Point{}, ErrInvalidCoordinates
	}
	return model.Point{X: x, Y: y}, nil
}
