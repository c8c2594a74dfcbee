// Package doctor provides dataset and environment preflight checks.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/go-ppg-tts/internal/arrayio"
	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/dataset"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/text"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

const (
	KindPPG  = "ppg"
	KindText = "text"
)

// maxReported caps the per-entry failure lines printed.
const maxReported = 10

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// ORTVersion returns the ONNX Runtime version (e.g. "1.23.0").
	ORTVersion VersionFunc
	// SkipORT skips the runtime check when no component needs ONNX.
	SkipORT bool
	// ORTAPIVersion is the C API version the runner requests; the library's
	// minor version must be at least this.
	ORTAPIVersion uint32
	// ModelFiles are verified on disk (speaker encoder, SentencePiece model).
	ModelFiles []string

	Entries         []manifest.Entry
	Kind            string
	SampleRate      int
	NumMels         int
	LoadMelFromDisk bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- ONNX Runtime -----------------------------------------------------
	if cfg.SkipORT || cfg.ORTVersion == nil {
		fmt.Fprintf(w, "%s onnx runtime: skipped\n", PassMark)
	} else {
		ver, err := cfg.ORTVersion()
		if err != nil {
			res.fail(fmt.Sprintf("onnx runtime: %v", err))
			fmt.Fprintf(w, "%s onnx runtime: not found (%v)\n", FailMark, err)
		} else if ver == "" || ver == "unknown" {
			fmt.Fprintf(w, "%s onnx runtime: found, version unknown (set ORT_VERSION to check it)\n", PassMark)
		} else if verErr := checkORTVersion(ver, cfg.ORTAPIVersion); verErr != nil {
			res.fail(fmt.Sprintf("onnx runtime: %v", verErr))
			fmt.Fprintf(w, "%s onnx runtime %s: %v\n", FailMark, ver, verErr)
		} else {
			fmt.Fprintf(w, "%s onnx runtime: %s\n", PassMark, ver)
		}
	}

	// ---- model files ------------------------------------------------------
	for _, path := range cfg.ModelFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("model file %q: %v", path, err))
			fmt.Fprintf(w, "%s model file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s model file: %s\n", PassMark, path)
		}
	}

	// ---- manifest entries -------------------------------------------------
	if len(cfg.Entries) == 0 {
		res.fail("manifest: no entries")
		fmt.Fprintf(w, "%s manifest: no entries\n", FailMark)

		return res
	}

	var mels *dataset.MelSource
	if cfg.LoadMelFromDisk {
		var err error
		mels, err = dataset.NewMelSource(nil, dataset.Options{NumMels: cfg.NumMels, LoadMelFromDisk: true})
		if err != nil {
			res.fail(fmt.Sprintf("mel source: %v", err))
			fmt.Fprintf(w, "%s mel source: %v\n", FailMark, err)

			return res
		}
	}

	bad := 0
	for i, e := range cfg.Entries {
		err := checkEntry(cfg, mels, e)
		if err == nil {
			continue
		}

		bad++
		res.fail(fmt.Sprintf("entry %d (%s): %v", i, e.AudioPath, err))
		if bad <= maxReported {
			fmt.Fprintf(w, "%s entry %d %s: %v\n", FailMark, i, e.AudioPath, err)
		}
	}

	if bad > maxReported {
		fmt.Fprintf(w, "%s ... %d more failing entries\n", FailMark, bad-maxReported)
	}

	mark := PassMark
	if bad > 0 {
		mark = FailMark
	}
	fmt.Fprintf(w, "%s manifest: %d/%d entries ok\n", mark, len(cfg.Entries)-bad, len(cfg.Entries))

	return res
}

func checkEntry(cfg Config, mels *dataset.MelSource, e manifest.Entry) error {
	if cfg.Kind == KindPPG {
		if _, err := arrayio.LoadMatrix(e.Aux); err != nil {
			return fmt.Errorf("ppg: %w", err)
		}
	} else if _, err := text.Normalize(e.Aux); err != nil {
		return fmt.Errorf("transcript: %w", err)
	}

	if mels != nil {
		if _, err := mels.Acquire(e, nil); err != nil {
			return err
		}

		if cfg.Kind != KindPPG {
			return nil
		}
	}

	// PPG entries always need the waveform for the speaker embedding.
	wav, err := audio.LoadWAV(e.AudioPath)
	if err != nil {
		return err
	}

	if mels == nil && wav.SampleRate != cfg.SampleRate {
		return fmt.Errorf("%w: %d SR doesn't match target %d SR",
			dataset.ErrSampleRateMismatch, wav.SampleRate, cfg.SampleRate)
	}

	return nil
}

// checkORTVersion returns an error unless ver is a 1.x release whose minor
// version covers apiVersion. ver is expected to look like "1.23.0".
func checkORTVersion(ver string, apiVersion uint32) error {
	minor, err := ortMinor(ver)
	if err != nil {
		return err
	}
	if minor < int(apiVersion) {
		return fmt.Errorf("C API version %d needs ONNX Runtime >=1.%d, got %s", apiVersion, apiVersion, ver)
	}
	return nil
}

// ortMinor returns the minor component of a 1.x version string.
func ortMinor(ver string) (int, error) {
	major, rest, ok := strings.Cut(strings.TrimPrefix(ver, "v"), ".")
	if !ok {
		return 0, fmt.Errorf("cannot parse ONNX Runtime version %q", ver)
	}
	if major != "1" {
		return 0, fmt.Errorf("requires ONNX Runtime 1.x, got %q", ver)
	}

	minor, _, _ := strings.Cut(rest, ".")
	n, err := strconv.Atoi(minor)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("cannot parse ONNX Runtime version %q", ver)
	}
	return n, nil
}
