package skeleton

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ShayCichocki/sot/internal/completion"
	"github.com/ShayCichocki/sot/internal/completion/completiontest"
	"github.com/ShayCichocki/sot/pkg/models"
)

func TestParsePoints(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []models.Point
	}{
		{
			name: "simple list",
			raw:  "1. A\n2. B\n3. C",
			want: []models.Point{{Index: 1, Label: "A"}, {Index: 2, Label: "B"}, {Index: 3, Label: "C"}},
		},
		{
			name: "preamble and blank lines discarded",
			raw:  "Here is the skeleton:\n\n1. Energy conservation.\n\n2. Sustainable diet.\nThanks!",
			want: []models.Point{{Index: 1, Label: "Energy conservation."}, {Index: 2, Label: "Sustainable diet."}},
		},
		{
			name: "indentation and trailing space",
			raw:  "   1.   Dumplings.  \n\t2. Noodles.\r",
			want: []models.Point{{Index: 1, Label: "Dumplings."}, {Index: 2, Label: "Noodles."}},
		},
		{
			name: "non matching numbering styles",
			raw:  "1) A\n- B\n2.C\n#3. D",
			want: nil,
		},
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
		{
			name: "index overflow kept with zero index",
			raw:  "99999999999999999999999. Huge\n2. Small",
			want: []models.Point{{Index: 0, Label: "Huge"}, {Index: 2, Label: "Small"}},
		},
		{
			name: "only point has overflowing index",
			raw:  "99999999999999999999999. Only point",
			want: []models.Point{{Index: 0, Label: "Only point"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePoints(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("ParsePoints() returned %d points, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("point %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRenumber_NonContiguous(t *testing.T) {
	points := []models.Point{{Index: 1, Label: "A"}, {Index: 3, Label: "B"}, {Index: 4, Label: "C"}}

	skel, changed := Renumber(points)
	if !changed {
		t.Error("expected renumbering for [1,3,4]")
	}
	for i, p := range skel {
		if p.Index != i+1 {
			t.Errorf("point %d index = %d, want %d", i, p.Index, i+1)
		}
	}
	if skel[1].Label != "B" || skel[2].Label != "C" {
		t.Errorf("relative order not preserved: %+v", skel)
	}
}

func TestRenumber_OutOfOrderAndDuplicate(t *testing.T) {
	skel, changed := Renumber([]models.Point{{Index: 2, Label: "X"}, {Index: 2, Label: "Y"}, {Index: 1, Label: "Z"}})
	if !changed {
		t.Error("expected renumbering")
	}
	want := models.Skeleton{{Index: 1, Label: "X"}, {Index: 2, Label: "Y"}, {Index: 3, Label: "Z"}}
	for i := range want {
		if skel[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, skel[i], want[i])
		}
	}
}

func TestRenumber_AlreadyContiguous(t *testing.T) {
	_, changed := Renumber([]models.Point{{Index: 1, Label: "A"}, {Index: 2, Label: "B"}})
	if changed {
		t.Error("contiguous indices should not be reported as renumbered")
	}
}

func TestGenerate_Success(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "1. A\n2. B\n3. C"})
	g := New(fake, completion.Params{MaxTokens: 200})

	skel, err := g.Generate(context.Background(), "List 3 tips")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if skel.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", skel.Len())
	}
	if fake.Calls() != 1 {
		t.Errorf("Calls() = %d, want exactly 1", fake.Calls())
	}

	prompts := fake.Prompts()
	if !strings.Contains(prompts[0], "List 3 tips") {
		t.Error("decomposition prompt should embed the query")
	}
}

func TestGenerate_Renumbers(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "1. A\n3. B\n4. C"})

	skel, err := New(fake, completion.Params{}).Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	got := []int{skel[0].Index, skel[1].Index, skel[2].Index}
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("indices = %v, want [1 2 3]", got)
	}
}

func TestGenerate_Unparsable(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "I cannot help with that."})

	_, err := New(fake, completion.Params{}).Generate(context.Background(), "q")
	if !IsDecompositionError(err) {
		t.Fatalf("err = %v, want DecompositionError", err)
	}

	var de *DecompositionError
	errors.As(err, &de)
	if de.Raw != "I cannot help with that." {
		t.Errorf("Raw = %q", de.Raw)
	}
	if fake.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", fake.Calls())
	}
}

func TestGenerate_BackendFailure(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{
		Err: &completion.Failure{Kind: models.ErrorKindAuth, Message: "invalid x-api-key"},
	})

	_, err := New(fake, completion.Params{}).Generate(context.Background(), "q")
	if !IsDecompositionError(err) {
		t.Fatalf("err = %v, want DecompositionError", err)
	}
	if completion.KindOf(err) != models.ErrorKindAuth {
		t.Errorf("KindOf = %q, want Auth", completion.KindOf(err))
	}
}

func TestGenerate_OverflowingIndexIsRenumbered(t *testing.T) {
	fake := completiontest.NewFake(completiontest.Reply{Text: "99999999999999999999999. Only point"})

	skel, err := New(fake, completion.Params{}).Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(skel) != 1 || skel[0] != (models.Point{Index: 1, Label: "Only point"}) {
		t.Errorf("skeleton = %+v, want single point 1", skel)
	}
}

func TestDecompositionError_TruncatesByRune(t *testing.T) {
	err := &DecompositionError{Raw: strings.Repeat("é", 300)}
	msg := err.Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("message is not valid UTF-8: %q", msg)
	}
	if !strings.Contains(msg, strings.Repeat("é", 200)+"... (truncated)") {
		t.Errorf("preview should keep 200 runes: %q", msg)
	}
	if !strings.Contains(msg, "300 chars") {
		t.Errorf("length should count runes: %q", msg)
	}
}

func TestDecompositionError_Message(t *testing.T) {
	err := &DecompositionError{Raw: strings.Repeat("x", 300)}
	if !strings.Contains(err.Error(), "truncated") {
		t.Errorf("long raw output should be truncated: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "300 chars") {
		t.Errorf("message should report raw length: %q", err.Error())
	}
}
