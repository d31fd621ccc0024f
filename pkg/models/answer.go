package models

import (
	"fmt"
	"strings"
)

// Section is one point of the final answer.
type Section struct {
	Index  int    `json:"index" yaml:"index"`
	Label  string `json:"label" yaml:"label"`
	Status Status `json:"status" yaml:"status"`
	// Body is the point text on success, or the failure placeholder on error.
	Body      string    `json:"text_or_placeholder" yaml:"text_or_placeholder"`
	ErrorKind ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
}

// FinalAnswer is the ordered, reassembled answer for a query.
type FinalAnswer struct {
	Sections []Section `json:"sections" yaml:"sections"`
	// Partial is true iff at least one section failed.
	Partial bool `json:"partial" yaml:"partial"`
}

// Failures returns the sections that carry an error.
func (a FinalAnswer) Failures() []Section {
	var failed []Section
	for _, s := range a.Sections {
		if s.Status == StatusError {
			failed = append(failed, s)
		}
	}
	return failed
}

// Text renders the answer as plain text, one heading per section.
func (a FinalAnswer) Text() string {
	var b strings.Builder
	for i, s := range a.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s\n%s", s.Index, s.Label, strings.TrimSpace(s.Body))
	}
	return b.String()
}
