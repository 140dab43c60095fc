package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformer_Transform(t *testing.T) {
	tr := NewTransformer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "tabs and newlines",
			input: "  Hello\tWorld\n",
			want:  "Hello World",
		},
		{
			name:  "non-breaking spaces are removed inside words",
			input: "Мос\u00a0ква и Питер",
			want:  "Москва Питер",
		},
		{
			name:  "isolated characters are dropped",
			input: "a bc d",
			want:  "bc",
		},
		{
			name:  "punctuation survives",
			input: "Привет, мир! Как дела? Да: нет; 1-2.",
			want:  "Привет, мир! Как дела? Да: нет; 1-2.",
		},
		{
			name:  "yo is outside the allowed range",
			input: "ёлка №5",
			want:  "лка",
		},
		{
			name:  "markup characters become spaces",
			input: "<b>bold</b> & (paren) \"quoted\"",
			want:  "bold paren quoted",
		},
		{
			name:  "isolated space inside a run",
			input: "xx   yy",
			want:  "xx yy",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: " \u00a0\t\r\n ",
			want:  "",
		},
		{
			name:  "carriage returns",
			input: "строка1\r\nстрока2",
			want:  "строка1 строка2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Transform(tt.input))
		})
	}
}

func TestTransformer_Idempotent(t *testing.T) {
	tr := NewTransformer()

	inputs := []string{
		"  Hello\tWorld\n",
		"a b c d e",
		"ab c de f gh",
		"Мос\u00a0ква — столица России; «кавычки» и т.д.",
		"x   y   z",
		"....  ,,,  !!!",
		"one\n\n\ntwo\t\tthree",
		"",
	}

	for _, in := range inputs {
		once := tr.Transform(in)
		assert.Equal(t, once, tr.Transform(once), "input %q", in)
	}
}

func TestRemoveIsolated(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a", ""},
		{"ab", "ab"},
		{"a b", " "},
		{"ab c", "ab "},
		{"x   y", "  "},
		{" a ", "  "},
		{"ab cd", "ab cd"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveIsolated(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "при", Truncate("привет", 3))
	assert.Equal(t, "привет", Truncate("привет", 6))
	assert.Equal(t, "привет", Truncate("привет", 100))
	assert.Equal(t, "", Truncate("привет", 0))
}
