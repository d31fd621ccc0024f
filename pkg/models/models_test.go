package models

import (
	"strings"
	"testing"
)

func TestStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"success is valid", StatusSuccess, true},
		{"error is valid", StatusError, true},
		{"empty string is invalid", Status(""), false},
		{"unknown status is invalid", Status("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Status(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestErrorKind_Valid(t *testing.T) {
	for _, k := range []ErrorKind{
		ErrorKindTimeout, ErrorKindRateLimited, ErrorKindAuth,
		ErrorKindTransport, ErrorKindMalformed, ErrorKindCancelled,
	} {
		if !k.Valid() {
			t.Errorf("ErrorKind(%q).Valid() = false, want true", k)
		}
	}
	if ErrorKind("timeout").Valid() {
		t.Error("lowercase kind should be invalid")
	}
}

func TestMode_Valid(t *testing.T) {
	if !ModeParallel.Valid() || !ModeNormal.Valid() {
		t.Error("known modes should be valid")
	}
	if Mode("serial").Valid() {
		t.Error("unknown mode should be invalid")
	}
}

func TestSkeleton_Outline(t *testing.T) {
	s := Skeleton{{Index: 1, Label: "Energy conservation."}, {Index: 2, Label: "Sustainable diet."}}

	want := "1. Energy conservation.\n2. Sustainable diet."
	if got := s.Outline(); got != want {
		t.Errorf("Outline() = %q, want %q", got, want)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestPointResultConstructors(t *testing.T) {
	ok := Succeeded(2, "text")
	if !ok.OK() || ok.Index != 2 || ok.Text != "text" || ok.ErrorKind != "" {
		t.Errorf("Succeeded() = %+v", ok)
	}

	bad := Failed(3, ErrorKindTimeout, "deadline exceeded")
	if bad.OK() || bad.ErrorKind != ErrorKindTimeout || bad.Text != "" {
		t.Errorf("Failed() = %+v", bad)
	}
}

func TestFinalAnswer_Text(t *testing.T) {
	a := FinalAnswer{
		Sections: []Section{
			{Index: 1, Label: "A", Status: StatusSuccess, Body: "  alpha\n"},
			{Index: 2, Label: "B", Status: StatusError, Body: "[point failed: Timeout]", ErrorKind: ErrorKindTimeout},
		},
		Partial: true,
	}

	got := a.Text()
	want := "1. A\nalpha\n\n2. B\n[point failed: Timeout]"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}

	failed := a.Failures()
	if len(failed) != 1 || failed[0].Index != 2 {
		t.Errorf("Failures() = %+v, want only index 2", failed)
	}
	if !strings.Contains(got, "Timeout") {
		t.Error("failure kind should appear in rendered text")
	}
}
