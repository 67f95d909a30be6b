package ingredient

import (
	"reflect"
	"testing"
)

func TestSplitListStripsParentheticals(t *testing.T) {
	t.Parallel()

	got := SplitList("Aqua (Water), Glycerin")
	want := []string{"Aqua", "Glycerin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitList returned %v, want %v", got, want)
	}
}

func TestSplitListIsIdempotent(t *testing.T) {
	t.Parallel()

	first := SplitList("Niacinamide, Zinc PCA; Panthenol\nTocopherol")
	joined := ""
	for i, name := range first {
		if i > 0 {
			joined += ", "
		}
		joined += name
	}
	second := SplitList(joined)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second pass changed tokens: %v vs %v", first, second)
	}
}

func TestSplitListSeparatorsAndEmpties(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"mixed separators", "Aqua;Glycerin\nRetinol", []string{"Aqua", "Glycerin", "Retinol"}},
		{"empty entries dropped", "Aqua,, ,Glycerin,", []string{"Aqua", "Glycerin"}},
		{"pure parenthetical dropped", "(Water), Glycerin", []string{"Glycerin"}},
		{"duplicates kept", "Aqua, Glycerin, Aqua", []string{"Aqua", "Glycerin", "Aqua"}},
		{"empty input", "", nil},
		{"only separators", ",;\n", nil},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SplitList(tt.raw)
			if len(tt.want) == 0 {
				if len(got) != 0 {
					t.Fatalf("SplitList(%q) = %v, want empty", tt.raw, got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SplitList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
