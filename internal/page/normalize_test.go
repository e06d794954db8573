package page

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"tabs become spaces", "a\tb", "a b"},
		{"carriage returns become spaces", "a\rb", "a b"},
		{"spaces collapse", "a     b", "a b"},
		{"lines trimmed", "  hello  \n  world  ", "hello\nworld"},
		{"blank runs capped", "a\n\n\n\n\n\nb", "a\n\n\nb"},
		{"leading and trailing trimmed", "\n\n  a  \n\n", "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
