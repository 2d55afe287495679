package geometry

import "math"

// Torus is a rectangular domain whose two axes wrap around.
// Positions live in the half-open rectangle [0, Width) x [0, Height).
type Torus struct {
	Width  float64
	Height float64
}

// Wrap brings p back inside the domain. One wraparound per axis is applied,
// which is enough as long as p was inside the domain before moving by less
// than one domain length.
func (t Torus) Wrap(p Vector2D) Vector2D {
	return Vector2D{X: wrapAxis(p.X, t.Width), Y: wrapAxis(p.Y, t.Height)}
}

func wrapAxis(x, size float64) float64 {
	if x < 0 {
		x += size
	}
	// also catches -tiny + size rounding up to exactly size
	if x >= size {
		x -= size
	}
	return x
}

// Contains reports whether p lies inside [0, Width) x [0, Height).
func (t Torus) Contains(p Vector2D) bool {
	return p.X >= 0 && p.X < t.Width && p.Y >= 0 && p.Y < t.Height
}

// Displacement returns the signed minimal displacement going from `from` to `to`,
// choosing on each axis the nearest periodic copy of `to`.
func (t Torus) Displacement(from, to Vector2D) Vector2D {
	return Vector2D{X: minimalDelta(to.X-from.X, t.Width), Y: minimalDelta(to.Y-from.Y, t.Height)}
}

func minimalDelta(d, size float64) float64 {
	if math.Abs(d) > size/2 {
		if d > 0 {
			return d - size
		}
		return d + size
	}
	return d
}

// Distance returns the wrap-aware euclidean distance between a and b.
func (t Torus) Distance(a, b Vector2D) float64 {
	return t.Displacement(a, b).Len()
}
