package geo

import (
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ParsePolyline parses a JSON array of ground coordinates into a
// geom.LineString.
// Input format: "[[x1,z1],[x2,z2],...]"
func ParsePolyline(input string) (geom.LineString, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return geom.LineString{}, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	if len(coords) < 2 {
		return geom.LineString{}, fmt.Errorf("polyline must have at least 2 points, got %d", len(coords))
	}

	flatCoords := make([]float64, 0, len(coords)*2)
	for i, coord := range coords {
		if len(coord) < 2 {
			return geom.LineString{}, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		flatCoords = append(flatCoords, coord[0], coord[1])
	}

	return geom.NewLineString(geom.NewSequence(flatCoords, geom.DimXY)), nil
}

// ParseFootprintWKT accepts a LINESTRING, or a POLYGON whose exterior ring
// becomes the footprint.
func ParseFootprintWKT(wkt string) (geom.LineString, error) {
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to parse footprint WKT: %w", err)
	}
	if ls, ok := g.AsLineString(); ok {
		if ls.Coordinates().Length() < 2 {
			return geom.LineString{}, fmt.Errorf("footprint must have at least 2 points")
		}
		return ls, nil
	}
	if poly, ok := g.AsPolygon(); ok {
		return poly.ExteriorRing(), nil
	}
	return geom.LineString{}, fmt.Errorf("unsupported footprint geometry %s", g.Type())
}
