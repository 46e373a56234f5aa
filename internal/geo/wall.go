package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/OCAP2/gunplay/pkg/core"
)

// Wall is static level geometry: a footprint on the ground plane extruded
// from Base up to Base+Height.
type Wall struct {
	Name      string
	Footprint geom.LineString
	Base      float64
	Height    float64
}

// NewWall builds a wall from a WKT footprint.
func NewWall(name, wkt string, base, height float64) (Wall, error) {
	ls, err := ParseFootprintWKT(wkt)
	if err != nil {
		return Wall{}, err
	}
	return Wall{Name: name, Footprint: ls, Base: base, Height: height}, nil
}

// RayHit is where a ray meets a wall.
type RayHit struct {
	Point    core.Vec3
	Distance float64
	Normal   core.Vec3
}

// RayCast intersects the ray origin + t*dir, t in [0, maxRange], with the
// wall and returns the nearest hit. dir must be a unit vector. Rays
// parallel to a face or with no horizontal component never hit.
func (w Wall) RayCast(origin, dir core.Vec3, maxRange float64) (RayHit, bool) {
	end := origin.Add(dir.Scale(maxRange))
	ground := math.Hypot(dir.X, dir.Z) * maxRange
	if ground < core.TimerEpsilon {
		return RayHit{}, false
	}
	if !geom.Intersects(groundSegment(origin, end).AsGeometry(), w.Footprint.AsGeometry()) {
		return RayHit{}, false
	}

	seq := w.Footprint.Coordinates()
	best := RayHit{Distance: math.Inf(1)}
	found := false
	for i := 0; i+1 < seq.Length(); i++ {
		a, b := seq.GetXY(i), seq.GetXY(i+1)
		t, ok := segmentParam(origin, end, a, b)
		if !ok {
			continue
		}
		d := t * maxRange
		y := origin.Y + dir.Y*d
		if y < w.Base || y > w.Base+w.Height || d >= best.Distance {
			continue
		}
		n := core.Vec3{X: b.Y - a.Y, Z: -(b.X - a.X)}.Normalize()
		if n.Dot(dir) > 0 {
			n = n.Scale(-1)
		}
		best = RayHit{Point: origin.Add(dir.Scale(d)), Distance: d, Normal: n}
		found = true
	}
	return best, found
}

// segmentParam returns the fraction along p->q where it crosses a->b on
// the ground plane.
func segmentParam(p, q core.Vec3, a, b geom.XY) (float64, bool) {
	rx, rz := q.X-p.X, q.Z-p.Z
	sx, sz := b.X-a.X, b.Y-a.Y
	den := rx*sz - rz*sx
	if math.Abs(den) < 1e-12 {
		return 0, false
	}
	ax, az := a.X-p.X, a.Y-p.Z
	t := (ax*sz - az*sx) / den
	u := (ax*rz - az*rx) / den
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// Distance returns the ground distance from p to the footprint.
func (w Wall) Distance(p core.Vec3) float64 {
	pt := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.X, Y: p.Z}, Type: geom.DimXY})
	d, ok := geom.Distance(pt.AsGeometry(), w.Footprint.AsGeometry())
	if !ok {
		return math.Inf(1)
	}
	return d
}
