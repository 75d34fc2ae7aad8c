package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInterpolation(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		ctx  Context
		want string
	}{
		{"string", "Query: {{ query }}", Context{"query": "React developer"}, "Query: React developer"},
		{"missing renders empty", "Query: [{{ query }}]", Context{}, "Query: []"},
		{"integral float", "Score {{ score }}", Context{"score": 72.0}, "Score 72"},
		{"fraction", "Score {{ score }}", Context{"score": 7.5}, "Score 7.5"},
		{"int", "Top {{ n }}", Context{"n": 10}, "Top 10"},
		{"no escaping", "{{ skills }}", Context{"skills": "C & C++ <fast>"}, "C & C++ <fast>"},
		{"slice of strings", "{{ skills }}", Context{"skills": []string{"Go", "SQL"}}, "Go, SQL"},
		{"object as json", "{{ meta }}", Context{"meta": map[string]any{"a": 1}}, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.tpl, tt.ctx))
		})
	}
}

func TestRenderConditionals(t *testing.T) {
	tpl := MustCompile("A{% if jobDescription %}[JD: {{ jobDescription }}]{% endif %}B")

	tests := []struct {
		name string
		ctx  Context
		want string
	}{
		{"present", Context{"jobDescription": "Go role"}, "A[JD: Go role]B"},
		{"absent", Context{}, "AB"},
		{"empty string", Context{"jobDescription": ""}, "AB"},
		{"null", Context{"jobDescription": nil}, "AB"},
		{"false", Context{"jobDescription": false}, "AB"},
		{"zero is truthy", Context{"jobDescription": 0}, "A[JD: 0]B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tpl.Render(tt.ctx))
		})
	}
}

func TestRenderElseBranch(t *testing.T) {
	tpl := MustCompile(`{% if refinement %}Refine: "{{ refinement }}"{% else %}Generate a new job posting.{% endif %}`)

	assert.Equal(t, "Generate a new job posting.", tpl.Render(Context{}))
	assert.Equal(t, `Refine: "shorter"`, tpl.Render(Context{"refinement": "shorter"}))
}

func TestOmittedBlockTextIsAbsent(t *testing.T) {
	tpl := MustCompile("Analyze.\n{% if companyDetails %}Also consider these company details:\n{{ companyDetails }}\n{% endif %}Done.")

	out := tpl.Render(Context{"resumeText": "Name: Jane Doe"})
	assert.NotContains(t, out, "company details")
	assert.Equal(t, "Analyze.\nDone.", out)
}

func TestRenderIsPure(t *testing.T) {
	tpl := MustCompile("{{ a }}-{% if b %}{{ b }}{% endif %}")
	ctx := Context{"a": "x", "b": "y"}

	first := tpl.Render(ctx)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, tpl.Render(ctx))
	}
	assert.Equal(t, Context{"a": "x", "b": "y"}, ctx)
}

func TestCompileRejectsBrokenSyntax(t *testing.T) {
	_, err := Compile("{% if resumeText %}never closed")
	require.Error(t, err)

	// The one-step helper degrades to the literal text.
	assert.True(t, strings.HasPrefix(Render("{% if x %}oops", Context{}), "{% if x %}"))
}

func TestSource(t *testing.T) {
	tpl := MustCompile("Hello {{ name }}")
	assert.Equal(t, "Hello {{ name }}", tpl.Source())
}

func TestRenderSkipsKeysThatAreNotIdentifiers(t *testing.T) {
	tpl := MustCompile("Resume: {{ resumeText }}")
	ctx := Context{"resumeText": "Jane Doe", "job-id": "42", "client ref": "abc", "9lives": true}

	out, err := tpl.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Resume: Jane Doe", out)
	assert.Equal(t, out, tpl.Render(ctx))
}

func TestIsIdentifier(t *testing.T) {
	for name, want := range map[string]bool{
		"resumeText": true,
		"_private":   true,
		"field2":     true,
		"":           false,
		"job-id":     false,
		"2fast":      false,
		"a.b":        false,
	} {
		assert.Equal(t, want, isIdentifier(name), name)
	}
}
