package model

import "math"

// Point is a 2D position on the network plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Lerp returns the point at fraction f along the segment p→q.
func (p Point) Lerp(q Point, f float64) Point {
	return Point{X: p.X + (q.X-p.X)*f, Y: p.Y + (q.Y-p.Y)*f}
}

// Station is a named stop on the network.
type Station struct {
	Name string `json:"name"`
	Pos  Point  `json:"pos"`
}

// EdgeKey identifies an undirected track segment. A is always the
// lexicographically smaller station name.
type EdgeKey struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewEdgeKey returns the canonical key for the segment between u and v.
func NewEdgeKey(u, v string) EdgeKey {
	if u < v {
		return EdgeKey{A: u, B: v}
	}
	return EdgeKey{A: v, B: u}
}

// String returns the key as "A|B".
func (k EdgeKey) String() string { return k.A + "|" + k.B }

// Less orders keys by A then B.
func (k EdgeKey) Less(o EdgeKey) bool {
	if k.A != o.A {
		return k.A < o.A
	}
	return k.B < o.B
}

// Track is an undirected connection between two stations. Weight is the
// traversal duration in ticks.
type Track struct {
	Key    EdgeKey `json:"key"`
	Weight int     `json:"weight"`
}
