package bench_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/example/go-ppg-tts/internal/bench"
)

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

func TestStats_MinMaxMean(t *testing.T) {
	durations := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}
	s := bench.ComputeStats(durations)

	if s.Min != 100*time.Millisecond {
		t.Errorf("want min=100ms, got %v", s.Min)
	}

	if s.Max != 300*time.Millisecond {
		t.Errorf("want max=300ms, got %v", s.Max)
	}

	if s.Mean != 200*time.Millisecond {
		t.Errorf("want mean=200ms, got %v", s.Mean)
	}
}

func TestStats_SingleRun(t *testing.T) {
	s := bench.ComputeStats([]time.Duration{150 * time.Millisecond})
	if s.Min != s.Max || s.Min != s.Mean {
		t.Errorf("single run: min/max/mean should all be equal, got min=%v max=%v mean=%v", s.Min, s.Max, s.Mean)
	}
}

func TestStats_Empty(t *testing.T) {
	if s := bench.ComputeStats(nil); s != (bench.Stats{}) {
		t.Errorf("want zero stats, got %+v", s)
	}
}

// ---------------------------------------------------------------------------
// Throughput
// ---------------------------------------------------------------------------

func TestThroughput_Calculation(t *testing.T) {
	// 64 examples in 500ms → 128 examples/s
	got := bench.CalcThroughput(64, 500*time.Millisecond)
	if got < 127.99 || got > 128.01 {
		t.Errorf("want throughput≈128, got %.4f", got)
	}
}

func TestThroughput_ZeroElapsed(t *testing.T) {
	if got := bench.CalcThroughput(64, 0); got != 0 {
		t.Errorf("want 0 for zero elapsed, got %.4f", got)
	}
}

func TestMeanThroughput(t *testing.T) {
	runs := []bench.RunResult{{Throughput: 100}, {Throughput: 300}}
	if got := bench.MeanThroughput(runs); got != 200 {
		t.Errorf("want 200, got %v", got)
	}
	if got := bench.MeanThroughput(nil); got != 0 {
		t.Errorf("want 0 for no runs, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// Throughput gate
// ---------------------------------------------------------------------------

func TestMinThroughput(t *testing.T) {
	tests := []struct {
		name    string
		mean    float64
		minimum float64
		wantErr bool
	}{
		{"below minimum", 50, 100, true},
		{"above minimum", 150, 100, false},
		{"exactly at minimum", 100, 100, false},
		{"disabled when zero", 0.1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bench.CheckMinThroughput(tt.mean, tt.minimum)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckMinThroughput(%v, %v) err = %v, wantErr %v", tt.mean, tt.minimum, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Output formatting
// ---------------------------------------------------------------------------

func sampleRuns() ([]bench.RunResult, bench.Stats) {
	runs := []bench.RunResult{
		{Index: 0, Cold: true, Duration: 800 * time.Millisecond, Batches: 4, Examples: 256, Throughput: 320},
		{Index: 1, Cold: false, Duration: 500 * time.Millisecond, Batches: 4, Examples: 256, Throughput: 512},
	}
	stats := bench.ComputeStats([]time.Duration{800 * time.Millisecond, 500 * time.Millisecond})

	return runs, stats
}

func TestFormatTable_ContainsHeaders(t *testing.T) {
	runs, stats := sampleRuns()

	var buf strings.Builder
	bench.FormatTable(runs, stats, &buf)
	out := buf.String()

	for _, want := range []string{"epoch", "cold", "ms", "batches", "examples", "ex/s", "(mean)"} {
		if !strings.Contains(strings.ToLower(out), want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON_IsValidJSON(t *testing.T) {
	runs, stats := sampleRuns()

	var buf bytes.Buffer
	bench.FormatJSON(runs, stats, &buf)

	var out struct {
		Runs []struct {
			Examples int `json:"examples"`
		} `json:"runs"`
		Stats struct {
			MeanThroughput float64 `json:"mean_examples_per_sec"`
		} `json:"stats"`
	}

	err := json.Unmarshal(buf.Bytes(), &out)
	if err != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v\n%s", err, buf.String())
	}

	if len(out.Runs) != 2 || out.Runs[0].Examples != 256 {
		t.Errorf("unexpected runs: %+v", out.Runs)
	}

	if out.Stats.MeanThroughput != 416 {
		t.Errorf("mean throughput = %v, want 416", out.Stats.MeanThroughput)
	}
}
