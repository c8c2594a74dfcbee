package text

import (
	"strings"
	"testing"
)

func TestExpandNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"7", "seven"},
		{"$5", "five dollars"},
		{"$1.50", "one dollar, fifty cents"},
		{"$0.01", "one cent"},
		{"$0", "zero dollars"},
		{"3.5", "three point five"},
		{"2000", "two thousand"},
		{"2005", "two thousand five"},
		{"1900", "nineteen hundred"},
		{"1905", "nineteen oh five"},
		{"3rd", "third"},
		{"12th", "twelfth"},
		{"21st", "twenty-first"},
		{"42", "forty-two"},
		{"123", "one hundred twenty-three"},
		{"1984", "nineteen eighty-four"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExpandNumbers(tt.input); got != tt.want {
				t.Errorf("ExpandNumbers(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandNumbersRemovesDigits(t *testing.T) {
	for _, in := range []string{"1,000,000 people", "the 21st century", "in 1984", "4,321"} {
		got := ExpandNumbers(in)
		if strings.ContainsAny(got, "0123456789,") {
			t.Errorf("ExpandNumbers(%q) = %q still has digits or commas", in, got)
		}
	}
}

func TestOrdinalWords(t *testing.T) {
	tests := []struct {
		n      int
		suffix string
	}{
		{1, "first"},
		{2, "second"},
		{4, "fourth"},
		{9, "ninth"},
		{20, "twentieth"},
		{21, "first"},
		{100, "hundredth"},
	}

	for _, tt := range tests {
		if got := OrdinalWords(tt.n); !strings.HasSuffix(got, tt.suffix) {
			t.Errorf("OrdinalWords(%d) = %q, want suffix %q", tt.n, got, tt.suffix)
		}
	}
}

func TestCardinalWordsHyphenation(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "zero"},
		{20, "twenty"},
		{21, "twenty-one"},
		{99, "ninety-nine"},
		{305, "three hundred five"},
		{4567, "four thousand five hundred sixty-seven"},
	}

	for _, tt := range tests {
		if got := CardinalWords(tt.n); got != tt.want {
			t.Errorf("CardinalWords(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}

	if got := OrdinalWords(33); got != "thirty-third" {
		t.Errorf("OrdinalWords(33) = %q, want %q", got, "thirty-third")
	}
}

func TestExpandAbbreviations(t *testing.T) {
	got := ExpandAbbreviations("mrs. smith and capt. hook live on st. james st")
	want := "misess smith and captain hook live on saint james st"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
