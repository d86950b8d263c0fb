package ai

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUnmarshalFlexible_NamingResponses(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "valid json object",
			input: `{"titles":[{"group":"Group 1","title":"EU Compliance Layer"}]}`,
		},
		{
			name:  "unquoted keys and single quotes",
			input: `{titles: [{group: 'Group 1', title: 'EU Compliance Layer'}]}`,
		},
		{
			name:  "trailing comma",
			input: `{"titles":[{"group":"Group 1","title":"EU Compliance Layer"},]}`,
		},
		{
			name:  "missing end brackets",
			input: `{"titles":[{"group":"Group 1","title":"EU Compliance Layer"`,
		},
		{
			name:  "stringified object",
			input: `"{\"titles\":[{\"group\":\"Group 1\",\"title\":\"EU Compliance Layer\"}]}"`,
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"titles\": [{\"group\": \"Group 1\", \"title\": \"EU Compliance Layer\"}]\n}\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got namingResponse
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if len(got.Titles) != 1 || got.Titles[0].Group != "Group 1" || got.Titles[0].Title != "EU Compliance Layer" {
				t.Fatalf("UnmarshalFlexible() got = %+v", got)
			}
		})
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	var got namingResponse
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestGenerateSchema_NamingResponse(t *testing.T) {
	raw, err := json.Marshal(GenerateSchema(&namingResponse{}))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	schema := string(raw)

	for _, want := range []string{`"titles"`, `"group"`, `"title"`, `"additionalProperties":false`} {
		if !strings.Contains(schema, want) {
			t.Fatalf("schema missing %s: %s", want, schema)
		}
	}
	if strings.Contains(schema, `"$ref"`) {
		t.Fatalf("schema should be inlined: %s", schema)
	}
}

func TestFitDimension(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		dim  int
		want []float32
	}{
		{name: "exact", in: []float64{1, 2}, dim: 2, want: []float32{1, 2}},
		{name: "truncate", in: []float64{1, 2, 3}, dim: 2, want: []float32{1, 2}},
		{name: "pad", in: []float64{1}, dim: 3, want: []float32{1, 0, 0}},
		{name: "unbounded", in: []float64{1, 2, 3}, dim: 0, want: []float32{1, 2, 3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FitDimension(tc.in, tc.dim)
			if len(got) != len(tc.want) {
				t.Fatalf("FitDimension() len = %d, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("FitDimension()[%d] = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}
