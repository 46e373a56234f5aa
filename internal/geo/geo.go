// Package geo converts between arena vectors and simplefeatures geometry
// and models level walls as vertical extrusions of 2D footprints.
package geo

import (
	"errors"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/OCAP2/gunplay/pkg/core"
)

// Geometry lives in the arena's ground plane: geometry X is arena X,
// geometry Y is arena Z, and the Z ordinate carries the arena height.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PointFromVec converts an arena position into an XYZ point.
func PointFromVec(v core.Vec3) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X, Y: v.Z},
		Z:    v.Y,
		Type: geom.DimXYZ,
	})
}

// VecFromPoint converts a point back into an arena position. An empty
// point yields the origin and false.
func VecFromPoint(p geom.Point) (core.Vec3, bool) {
	c, ok := p.Coordinates()
	if !ok {
		return core.Vec3{}, false
	}
	return core.Vec3{X: c.XY.X, Y: c.Z, Z: c.XY.Y}, true
}

// Vec3FromString parses "x,y" or "x,y,z" in arena axes. A missing z is 0.
func Vec3FromString(coords string) (core.Vec3, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return core.Vec3{}, ErrInvalidCoordinates
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.Vec3{}, ErrInvalidCoordinates
		}
		v[i] = f
	}
	return core.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Vec3String formats a vector the way Vec3FromString reads it.
func Vec3String(v core.Vec3) string {
	return strconv.FormatFloat(v.X, 'f', -1, 64) + "," +
		strconv.FormatFloat(v.Y, 'f', -1, 64) + "," +
		strconv.FormatFloat(v.Z, 'f', -1, 64)
}

// groundSegment builds the footprint of the ray from a to b.
func groundSegment(a, b core.Vec3) geom.LineString {
	seq := geom.NewSequence([]float64{a.X, a.Z, b.X, b.Z}, geom.DimXY)
	return geom.NewLineString(seq)
}
