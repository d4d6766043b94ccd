package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Vec3 is a point or direction in world space.
// Value type, passed by value (immutable).
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// V creates a Vec3.
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Len returns the vector length.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceSquared returns squared distance to other (no sqrt).
func (v Vec3) DistanceSquared(o Vec3) float64 {
	d := v.Sub(o)
	return d.Dot(d)
}

// Distance returns Euclidean distance to other.
func (v Vec3) Distance(o Vec3) float64 {
	return math.Sqrt(v.DistanceSquared(o))
}

// Normalize returns the unit vector, or zero vector for zero length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// AngleDeg returns the angle between v and o in degrees, range [0, 180].
// Zero-length inputs yield 0.
func (v Vec3) AngleDeg(o Vec3) float64 {
	a := v.Normalize()
	b := o.Normalize()
	if a.IsZero() || b.IsZero() {
		return 0
	}
	// Clamp: rounding may push the dot product slightly outside [-1, 1].
	dot := math.Max(-1, math.Min(1, a.Dot(b)))
	return math.Acos(dot) * 180 / math.Pi
}

// OnCircle returns the point at radius and angle (degrees) around v in the XY plane.
// Z is taken from v.
func (v Vec3) OnCircle(radius, angleDeg float64) Vec3 {
	rad := angleDeg * math.Pi / 180
	return Vec3{
		X: v.X + radius*math.Cos(rad),
		Y: v.Y + radius*math.Sin(rad),
		Z: v.Z,
	}
}

// Planar projects v onto the XY plane.
func (v Vec3) Planar() orb.Point {
	return orb.Point{v.X, v.Y}
}
