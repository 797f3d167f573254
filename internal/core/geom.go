// Package core provides the fixed-point geometry and input vocabulary shared by
// the producer and consumer sides of a recording. It contains no external
// dependencies so that both sides stay pure and testable.
package core

// FixedOne is the fixed-point representation of 1.0 used by rotation matrices
// and facing angles (a full turn is also FixedOne).
const FixedOne = 4096

// Vec2 is a position on the ground plane.
type Vec2 struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

// Vec3 is a world-space position.
type Vec3 struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// XZ drops the vertical component.
func (v Vec3) XZ() Vec2 {
	return Vec2{X: v.X, Z: v.Z}
}

// Offset is a short-range translation relative to an actor, used by sub-parts.
type Offset struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Matrix is a row-major 3x3 rotation matrix in 4.12 fixed point.
type Matrix [9]int16

// IdentityMatrix returns the fixed-point identity rotation.
func IdentityMatrix() Matrix {
	return Matrix{
		FixedOne, 0, 0,
		0, FixedOne, 0,
		0, 0, FixedOne,
	}
}

// Transform is a rigid transform: rotation plus translation.
type Transform struct {
	Matrix      Matrix `json:"matrix"`
	Translation Vec3   `json:"translation"`
}

// Center returns the ground-plane position of the transform.
func (t Transform) Center() Vec2 {
	return t.Translation.XZ()
}

// Rect represents an axis-aligned box on the ground plane.
type Rect struct {
	X, Z int32 // Minimum corner
	W, D int32 // Width (x) and depth (z)
}

// RectAround returns the box of the given size centered on c.
func RectAround(c Vec2, w, d int32) Rect {
	return Rect{X: c.X - w/2, Z: c.Z - d/2, W: w, D: d}
}

// Contains returns true if the point is inside the box.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Z >= r.Z && p.Z < r.Z+r.D
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// SaturateU8 narrows v to a byte, saturating at the bounds.
func SaturateU8(v int) uint8 {
	return uint8(Clamp(v, 0, 0xff)) //nolint:gosec // clamped above
}

// Abs returns the absolute value of an integer.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
