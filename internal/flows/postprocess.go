package flows

import (
	"html"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.StrictPolicy()
	})
	return markupPolicy
}

// htmlTag matches elements a model may wrap a posting in. Anything else in
// angle brackets, such as "<jane@example.com>" or "3<years<7", is text.
var htmlTag = regexp.MustCompile(`(?i)</?(?:a|b|blockquote|body|br|code|div|em|h[1-6]|head|hr|html|i|li|ol|p|pre|script|section|span|strong|style|table|tbody|td|th|thead|title|tr|u|ul)\b[^<>]*>`)

// stripMarkup removes any HTML the model put into a plain-text answer while
// keeping angle brackets that are part of the text.
func stripMarkup(value any) any {
	text, ok := value.(string)
	if !ok {
		return value
	}
	tags := htmlTag.FindAllStringIndex(text, -1)
	if len(tags) == 0 {
		return strings.TrimSpace(text)
	}

	var b strings.Builder
	last := 0
	for _, loc := range tags {
		b.WriteString(escapeBrackets(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(escapeBrackets(text[last:]))

	// StrictPolicy escapes the text it keeps; postings are plain text.
	cleaned := html.UnescapeString(markupSanitizer().Sanitize(b.String()))
	return strings.TrimSpace(cleaned)
}

var bracketEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

func escapeBrackets(s string) string {
	return bracketEscaper.Replace(s)
}

// capItems keeps the first n elements of a list answer.
func capItems(n int) PostProcessFunc {
	return func(value any) any {
		items, ok := value.([]any)
		if !ok || len(items) <= n {
			return value
		}
		return items[:n]
	}
}

// sortByRank orders a list of objects by their "rank" field, lowest first,
// keeping the model's order for equal ranks, and keeps the first n.
func sortByRank(n int) PostProcessFunc {
	return func(value any) any {
		items, ok := value.([]any)
		if !ok {
			return value
		}
		sorted := append([]any(nil), items...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return rankOf(sorted[i]) < rankOf(sorted[j])
		})
		if len(sorted) > n {
			sorted = sorted[:n]
		}
		return sorted
	}
}

func rankOf(item any) float64 {
	m, ok := item.(map[string]any)
	if !ok {
		return math.Inf(1)
	}
	switch r := m["rank"].(type) {
	case float64:
		return r
	case int:
		return float64(r)
	case int64:
		return float64(r)
	}
	return math.Inf(1)
}
