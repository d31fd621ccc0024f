package models

// Mode selects how a query is answered.
type Mode string

const (
	// ModeParallel decomposes the query into a skeleton and expands points concurrently.
	ModeParallel Mode = "parallel"
	// ModeNormal answers the query with a single completion request.
	ModeNormal Mode = "normal"
)

// Valid returns true if the mode is a known value.
func (m Mode) Valid() bool {
	switch m {
	case ModeParallel, ModeNormal:
		return true
	default:
		return false
	}
}
