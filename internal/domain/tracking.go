package domain

import "iter"

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// PointGroup is one blob reported by the tracker: an ordered run of points.
type PointGroup []Point

// TrackedPointSet holds the groups seen during a single tick.
type TrackedPointSet []PointGroup

// Points yields every point of every group in order.
func (s TrackedPointSet) Points() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for _, g := range s {
			for _, p := range g {
				if !yield(p) {
					return
				}
			}
		}
	}
}

func (s TrackedPointSet) Len() int {
	n := 0
	for _, g := range s {
		n += len(g)
	}
	return n
}

func (s TrackedPointSet) Empty() bool {
	return s.Len() == 0
}

// Centroid of a group. ok is false for an empty group.
func (g PointGroup) Centroid() (Point, bool) {
	if len(g) == 0 {
		return Point{}, false
	}
	var c Point
	for _, p := range g {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(g))
	return Point{X: c.X / n, Y: c.Y / n}, true
}
