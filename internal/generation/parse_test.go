package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"prose around", `Міне жауап: {"a":1} Рахмет!`, `{"a":1}`},
		{"markdown fence", "```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`},
		{"brace inside string", `{"a": "x } y"} {"b":1}`, `{"a": "x } y"}`},
		{"escaped quote", `{"a": "say \"}\""}`, `{"a": "say \"}\""}`},
		{"unbalanced falls back to last brace", `{"a": {"b": 1} tail`, `{"a": {"b": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON("Кешіріңіз, мен жауап бере алмаймын.")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ExtractJSON("{ never closed")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestDecodeJSON_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"empty questions":    `{"questions": []}`,
		"missing answer":     `{"questions": [{"question": "q"}]}`,
		"points as string":   `{"questions": [{"question": "q", "correctAnswer": "A", "points": "two"}]}`,
		"wrong root":         `{"items": [{"question": "q", "correctAnswer": "A"}]}`,
		"syntax error":       `{"questions": [}`,
		"options not a list": `{"questions": [{"question": "q", "correctAnswer": "A", "options": "A) x"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var p testPayload
			err := DecodeJSON(body, testSchema, &p)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestDecodeJSON_Accepts(t *testing.T) {
	var p descriptorPayload
	err := DecodeJSON("```json\n"+`{"tasks":[{"task":"t","level":"low","descriptors":["d"],"points":3}],"criteria":"c"}`+"\n```", descriptorSchema, &p)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, "c", p.Criteria)
	assert.Equal(t, float64(3), p.Tasks[0].Points)
}

func TestMustCompileSchema_PanicsOnBadDocument(t *testing.T) {
	assert.Panics(t, func() { MustCompileSchema("broken", `{"type": 12}`) })
	assert.Panics(t, func() { MustCompileSchema("not-json", `{`) })
}
