package data

import (
	"errors"
	"testing"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"tool":"web_search"}`,
			want: `{"tool":"web_search"}`,
		},
		{
			name: "object wrapped in prose",
			in:   "Sure, here is the plan:\n{\"tasks\": [\"a\", \"b\"]}\nLet me know.",
			want: `{"tasks": ["a", "b"]}`,
		},
		{
			name: "nested objects",
			in:   `{"calls":[{"tool":"stock_lookup","args":{"ticker":"MSFT"}}]}`,
			want: `{"calls":[{"tool":"stock_lookup","args":{"ticker":"MSFT"}}]}`,
		},
		{
			name: "braces inside strings",
			in:   `{"feedback":"use {placeholders} sparingly"}`,
			want: `{"feedback":"use {placeholders} sparingly"}`,
		},
		{
			name: "escaped quote inside string",
			in:   `{"feedback":"she said \"no}\" twice"}`,
			want: `{"feedback":"she said \"no}\" twice"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.in)
			if err != nil {
				t.Fatalf("ExtractObject: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractObjectErrors(t *testing.T) {
	for _, in := range []string{"", "no json here", "{unbalanced"} {
		_, err := ExtractObject(in)
		if !errors.Is(err, ErrNoObject) {
			t.Errorf("ExtractObject(%q): want ErrNoObject, got %v", in, err)
		}
	}
}
