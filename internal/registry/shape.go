package registry

import (
	"strings"

	"github.com/roach88/timelockidx/internal/ir"
)

// Shape is a bitmask of the indexes that hold an identity.
type Shape uint8

const (
	ShapeNone   Shape = 0
	ShapeSingle Shape = 1 << 0
	ShapeBatch  Shape = 1 << 1
)

// Has reports whether every bit of other is set in s.
func (s Shape) Has(other Shape) bool {
	return s&other == other && other != ShapeNone
}

// String returns "single", "batch", "single|batch" or "none".
func (s Shape) String() string {
	var parts []string
	if s&ShapeSingle != 0 {
		parts = append(parts, "single")
	}
	if s&ShapeBatch != 0 {
		parts = append(parts, "batch")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// membership is the part of an Index that cross-shape cancellation needs.
type membership interface {
	Contains(id ir.Identity) bool
	Remove(id ir.Identity) bool
}

// shapeIndex tags an index with the shape bit it answers for.
type shapeIndex struct {
	shape Shape
	index membership
}
