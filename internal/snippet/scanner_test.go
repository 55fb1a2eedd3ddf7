package snippet

import (
	"reflect"
	"testing"
)

func TestExtractReferences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "no refs", text: "plain text with email@ but no token", want: nil},
		{name: "single", text: "use @base here", want: []string{"base"}},
		{name: "dedup", text: "@a and @a again and @a", want: []string{"a"}},
		{name: "multiple sorted", text: "@zeta then @alpha then @mid", want: []string{"alpha", "mid", "zeta"}},
		{name: "underscore and digits", text: "@foo_bar2 plus @x9", want: []string{"foo_bar2", "x9"}},
		{name: "adjacent punctuation", text: "(@a), @b.", want: []string{"a", "b"}},
		{name: "stops at invalid char", text: "@abc-def", want: []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractReferences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractReferences(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
