package alphanum

import (
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCompare_Ordering(t *testing.T) {
	got := []string{"cc", "10", "AA", "2", "bb", "1"}
	slices.SortFunc(got, Compare)
	want := []string{"1", "2", "10", "AA", "bb", "cc"}
	if !slices.Equal(got, want) {
		t.Errorf("sorted = %v, want %v", got, want)
	}
}

func TestCompare_EmbeddedNumbers(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"page2", "page10", -1},
		{"page10", "page2", 1},
		{"v1.9", "v1.10", -1},
		{"same", "same", 0},
		{"a", "ab", -1},
		{"01", "1", -1},
	}
	for _, c := range cases {
		if got := Compare(c.a, c.b); got != c.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCompare_Antisymmetric(t *testing.T) {
	word := gen.RegexMatch(`[a-c0-9]{0,5}`)
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("Compare(a, b) == -Compare(b, a)", prop.ForAll(
		func(a, b string) bool {
			return Compare(a, b) == -Compare(b, a)
		},
		word, word,
	))
	properties.Property("sorting is stable under resorting", prop.ForAll(
		func(items []string) bool {
			once := slices.Clone(items)
			slices.SortFunc(once, Compare)
			twice := slices.Clone(once)
			slices.SortFunc(twice, Compare)
			return slices.Equal(once, twice) && slices.IsSortedFunc(once, Compare)
		},
		gen.SliceOf(word),
	))
	properties.TestingRun(t)
}
