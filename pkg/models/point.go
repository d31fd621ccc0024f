package models

import (
	"strconv"
	"strings"
)

// Point is one entry in a skeleton: an independent unit of elaboration.
type Point struct {
	// Index is the 1-based position of the point in the skeleton.
	Index int `json:"index" yaml:"index"`
	// Label is the short text naming the sub-task.
	Label string `json:"label" yaml:"label"`
}

// Skeleton is the ordered outline of points derived from a query.
// Indices are contiguous and start at 1.
type Skeleton []Point

// Len returns the number of points in the skeleton.
func (s Skeleton) Len() int {
	return len(s)
}

// Outline renders the skeleton as the numbered list it was parsed from.
func (s Skeleton) Outline() string {
	var b strings.Builder
	for i, p := range s {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.String())
	}
	return b.String()
}

// String returns the point as "<index>. <label>".
func (p Point) String() string {
	return strconv.Itoa(p.Index) + ". " + p.Label
}
