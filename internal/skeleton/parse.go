package skeleton

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ShayCichocki/sot/pkg/models"
)

// pointLine matches "<integer>. <text>" with optional surrounding whitespace.
var pointLine = regexp.MustCompile(`^\s*(\d+)\.\s+(\S.*?)\s*$`)

// ParsePoints extracts numbered points from raw backend output, in the order
// they appear. Lines that are not "<integer>. <text>" are discarded.
// Indices are returned as written; see Renumber. An index too large for an
// int is returned as 0.
func ParsePoints(raw string) []models.Point {
	var points []models.Point
	for _, line := range strings.Split(raw, "\n") {
		m := pointLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			index = 0
		}
		points = append(points, models.Point{Index: index, Label: m[2]})
	}
	return points
}

// Renumber returns points with indices 1..n in encounter order.
// The second return value reports whether any index changed.
func Renumber(points []models.Point) (models.Skeleton, bool) {
	out := make(models.Skeleton, len(points))
	changed := false
	for i, p := range points {
		if p.Index != i+1 {
			changed = true
		}
		out[i] = models.Point{Index: i + 1, Label: p.Label}
	}
	return out, changed
}
