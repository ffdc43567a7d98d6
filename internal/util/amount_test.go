package util

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "thousand dot decimal comma", input: "1.234,56", want: 1234.56},
		{name: "decimal comma", input: "5,00", want: 5},
		{name: "plain integer", input: "10", want: 10},
		{name: "decimal dot", input: "2.5", want: 2.5},
		{name: "thousand dots only", input: "12.500", want: 12500},
		{name: "thousand spaces", input: "1 000", want: 1000},
		{name: "padded", input: "  42,10  ", want: 42.1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.input)
			if got == nil {
				t.Fatalf("amount is nil")
			}
			if *got != tc.want {
				t.Fatalf("got %v want %v", *got, tc.want)
			}
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, input := range []string{"", "invalid", "12a", "1,2,3", "..", "-"} {
		if got := ParseAmount(input); got != nil {
			t.Fatalf("input %q: expected nil, got %v", input, *got)
		}
	}
}
