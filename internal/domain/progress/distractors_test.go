package progress

import (
	"encoding/json"
	"testing"
)

func TestDistractorListUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "native array",
			in:   `["a","b","c"]`,
			want: []string{"a", "b", "c"},
		},
		{
			name: "double-encoded array",
			in:   `"[\"a\",\"b\",\"c\"]"`,
			want: []string{"a", "b", "c"},
		},
		{
			name: "bare string scalar",
			in:   `"just one"`,
			want: []string{"just one"},
		},
		{
			name: "numeric scalar",
			in:   `42`,
			want: []string{"42"},
		},
		{
			name: "string that merely starts with a bracket",
			in:   `"[not json"`,
			want: []string{"[not json"},
		},
		{
			name: "empty string",
			in:   `""`,
			want: nil,
		},
		{
			name: "empty array",
			in:   `[]`,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DistractorList
			if err := json.Unmarshal([]byte(tt.in), &d); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.in, err)
			}
			if len(d) != len(tt.want) {
				t.Fatalf("got %v, want %v", d, tt.want)
			}
			for i := range tt.want {
				if d[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, d[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseDistractors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"json array", `["a","b"]`, []string{"a", "b"}},
		{"double encoded", `"[\"a\",\"b\"]"`, []string{"a", "b"}},
		{"pre-json raw text", `plain old distractor`, []string{"plain old distractor"}},
		{"empty", ``, nil},
		{"whitespace only", `   `, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDistractors(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDistractorListRoundTripsAsArray(t *testing.T) {
	// Whatever shape came in, the list always writes back as a native array.
	var d DistractorList
	if err := json.Unmarshal([]byte(`"[\"a\",\"b\"]"`), &d); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `["a","b"]` {
		t.Errorf("marshaled = %s, want [\"a\",\"b\"]", out)
	}
}
