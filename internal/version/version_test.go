package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	v := Get()
	if v == "" {
		t.Fatal("Get() returned empty version")
	}
	if strings.ContainsAny(v, " \n\t") {
		t.Errorf("Get() = %q, want trimmed", v)
	}
}

func TestFull(t *testing.T) {
	orig := Commit
	t.Cleanup(func() { Commit = orig })

	Commit = ""
	if got := Full(); strings.Contains(got, "(") {
		t.Errorf("Full() = %q, want no commit", got)
	}

	Commit = "abc1234"
	if got := Full(); !strings.Contains(got, "(abc1234)") || !strings.HasPrefix(got, "sot "+Get()) {
		t.Errorf("Full() = %q", got)
	}
}
