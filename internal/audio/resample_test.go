package audio

import (
	"math"
	"testing"
)

func TestResampleSameRateCopies(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}

	out, err := Resample(in, 16000, 16000)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}

	out[0] = 9
	if in[0] != 0.1 {
		t.Fatal("Resample returned an alias of its input")
	}
}

func TestResampleChangesLength(t *testing.T) {
	const from, to = 22050, 16000

	in := make([]float32, from)
	for i := range in {
		in[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/from))
	}

	out, err := Resample(in, from, to)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}

	if len(out) < to*8/10 || len(out) > to*11/10 {
		t.Fatalf("len = %d, want about %d", len(out), to)
	}
}

func TestResampleRejectsBadRates(t *testing.T) {
	if _, err := Resample([]float32{1}, 0, 16000); err == nil {
		t.Fatal("expected error for zero input rate")
	}
}

func TestResampleKeepsTail(t *testing.T) {
	cases := []struct{ from, to, n int }{
		{22050, 16000, 22050},
		{16000, 22050, 16000},
		{48000, 16000, 4800},
	}

	for _, tc := range cases {
		in := make([]float32, tc.n)
		for i := range in {
			in[i] = 0.3
		}

		out, err := Resample(in, tc.from, tc.to)
		if err != nil {
			t.Fatalf("%d -> %d: %v", tc.from, tc.to, err)
		}

		want := (tc.n*tc.to + tc.from - 1) / tc.from
		if len(out) > want || len(out) < want-want/200 {
			t.Fatalf("%d -> %d: len = %d, want about %d", tc.from, tc.to, len(out), want)
		}
	}
}
