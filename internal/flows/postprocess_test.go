package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortByRankIsStable(t *testing.T) {
	items := []any{
		map[string]any{"resume": "c", "rank": 2.0},
		map[string]any{"resume": "a", "rank": 1.0},
		map[string]any{"resume": "b", "rank": 2.0},
		map[string]any{"resume": "odd"},
	}
	got := sortByRank(10)(items).([]any)

	var order []string
	for _, item := range got {
		order = append(order, item.(map[string]any)["resume"].(string))
	}
	assert.Equal(t, []string{"a", "c", "b", "odd"}, order)
	assert.Equal(t, "c", items[0].(map[string]any)["resume"], "input is not reordered")
}

func TestCapItems(t *testing.T) {
	assert.Equal(t, []any{1, 2}, capItems(2)([]any{1, 2, 3}))
	assert.Equal(t, []any{1}, capItems(2)([]any{1}))
	assert.Equal(t, "text", capItems(2)("text"))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "Title\nPay: 5 < 10 & more", stripMarkup("<p>Title</p>\nPay: 5 &lt; 10 &amp; more "))
	assert.Equal(t, 42, stripMarkup(42))

	tests := map[string]string{
		"Contact: Jane <jane@example.com>":                 "Contact: Jane <jane@example.com>",
		"Experience: 3<years<7":                            "Experience: 3<years<7",
		"<ul><li>Go</li></ul> Contact <jane@example.com>": "Go Contact <jane@example.com>",
		"<h2>Benefits</h2>\nSalary > 100k & equity":        "Benefits\nSalary > 100k & equity",
		"<script>alert(1)</script>Senior Engineer":         "Senior Engineer",
	}
	for in, want := range tests {
		assert.Equal(t, want, stripMarkup(in), in)
	}
}

func TestCleanJSON(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\": 1}\n```": `{"a": 1}`,
		"```\n[1]\n```":            "[1]",
		"  [1]  ":                  "[1]",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanJSON(in))
	}
}
