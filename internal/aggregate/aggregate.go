// Package aggregate reassembles per-point results into the final answer.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/sot/pkg/models"
)

// Placeholder returns the body used for a failed point.
func Placeholder(kind models.ErrorKind) string {
	return fmt.Sprintf("[point failed: %s]", kind)
}

// Aggregate builds the final answer for skel from results, which may arrive
// in any order. Sections follow skeleton order. A skeleton point with no
// result is reported as a Malformed failure so numbering always matches skel.
// Aggregate does no I/O and does not modify results.
func Aggregate(skel models.Skeleton, results []models.PointResult) models.FinalAnswer {
	sorted := make([]models.PointResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	byIndex := make(map[int]models.PointResult, len(sorted))
	for _, r := range sorted {
		if _, seen := byIndex[r.Index]; !seen {
			byIndex[r.Index] = r
		}
	}

	answer := models.FinalAnswer{Sections: make([]models.Section, 0, len(skel))}
	for _, p := range skel {
		r, ok := byIndex[p.Index]
		if !ok {
			r = models.Failed(p.Index, models.ErrorKindMalformed, "no result for point")
		}

		section := models.Section{Index: p.Index, Label: p.Label, Status: r.Status}
		if r.OK() {
			section.Body = strings.TrimSpace(r.Text)
		} else {
			section.Status = models.StatusError
			section.ErrorKind = r.ErrorKind
			section.Body = Placeholder(r.ErrorKind)
			answer.Partial = true
		}
		answer.Sections = append(answer.Sections, section)
	}
	return answer
}
