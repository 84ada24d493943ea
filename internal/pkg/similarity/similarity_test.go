package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTitleSimilar(t *testing.T) {
	cases := []struct {
		name      string
		existing  string
		candidate string
		want      bool
	}{
		{"identical", "Annual fee waived", "Annual fee waived", true},
		{"case and whitespace", "  Annual FEE waived ", "annual fee waived", true},
		{"reworded transfer bonus", "20% bonus on transfers to Partner X", "Get 20% transfer bonus to Partner X", true},
		{"spacing variant", "Earn 3% cashback on travel", "Earn 3% cash back on travel", true},
		{"unrelated events", "Annual fee increased to $150", "20% bonus on transfers to Partner X", false},
		{"different category", "5x points on dining", "5x points on groceries", false},
		{"empty vs non-empty", "", "Annual fee waived", false},
		{"non-empty vs empty", "Annual fee waived", "   ", false},
		{"both empty", "", "  ", true},
		{"punctuation only", "!!!", "???", false},
		{"same punctuation only", "!!!", "!!!", true},
		{"punctuation vs words", "---", "Annual fee waived", false},
		{"swapped amounts", "Spend $500 get $50", "Spend $50 get $500", false},
		{"changed amount", "Annual fee increased to $150", "Annual fee increased to $195", false},
		{"same amounts reworded", "Spend $500, get $50 back", "Spend $500 get $50 back", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsTitleSimilar(c.existing, c.candidate))
		})
	}
}

func TestIsTitleSimilar_Symmetric(t *testing.T) {
	a, b := "20% bonus on transfers to Partner X", "Get 20% transfer bonus to Partner X"
	assert.Equal(t, IsTitleSimilar(a, b), IsTitleSimilar(b, a))
	assert.InDelta(t, Score(a, b), Score(b, a), 1e-9)
}

func TestScore_ThresholdBoundary(t *testing.T) {
	// 20 characters, distances 3 and 4: scores 0.85 and 0.80.
	base := "abcdefghijklmnopqrst"
	atThreshold := "abcdefghijklmnopqxyz"
	belowThreshold := "abcdefghijklmnopwxyz"

	assert.InDelta(t, 0.85, Score(base, atThreshold), 1e-9)
	assert.True(t, IsTitleSimilar(base, atThreshold))

	assert.InDelta(t, 0.80, Score(base, belowThreshold), 1e-9)
	assert.False(t, IsTitleSimilar(base, belowThreshold))
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"über", "uber", 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, levenshtein([]rune(c.a), []rune(c.b)), "%q vs %q", c.a, c.b)
	}
}

func TestAmounts(t *testing.T) {
	assert.Equal(t, []string{"$500", "$50"}, amounts(normalize("Spend $500, get $50")))
	assert.Equal(t, []string{"5x"}, amounts(normalize("5x points on dining")))
	assert.Empty(t, amounts(normalize("Annual fee waived")))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "get 20% transfer bonus to partner x", normalize("Get 20% transfer-bonus to Partner X!"))
	assert.Equal(t, "fee $150", normalize("  Fee:   $150. "))
}
