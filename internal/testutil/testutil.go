// Package testutil provides fixture writers and skip helpers shared by tests.
//
// Skip helpers call t.Skip with a human-readable reason when a prerequisite is
// absent, so integration tests stay runnable in partial environments:
//
//	func TestSpeakerIntegration(t *testing.T) {
//	    testutil.RequireONNXRuntime(t)
//	    model := testutil.RequireEnvFile(t, "PPGTTS_SPEAKER_MODEL")
//	    ...
//	}
package testutil

import (
	"os"
	"testing"
)

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks (in order): the PPGTTS_ORT_LIB env var, then
// ORT_LIBRARY_PATH, then common system library paths.
func RequireONNXRuntime(tb testing.TB) {
	tb.Helper()

	for _, env := range []string{"PPGTTS_ORT_LIB", "ORT_LIBRARY_PATH"} {
		if p := os.Getenv(env); p != "" {
			// #nosec G703 -- Integration tests intentionally accept explicit env-provided local library paths.
			_, err := os.Stat(p)
			if err == nil {
				return
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)

			return
		}
	}

	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, p := range candidates {
		_, err := os.Stat(p)
		if err == nil {
			return
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set PPGTTS_ORT_LIB or ORT_LIBRARY_PATH")
}

// RequireEnvFile skips the test unless env names an existing file, and
// returns that path.
func RequireEnvFile(tb testing.TB, env string) string {
	tb.Helper()

	p := os.Getenv(env)
	if p == "" {
		tb.Skipf("%s not set", env)
		return ""
	}

	if _, err := os.Stat(p); err != nil {
		tb.Skipf("%s=%q not readable: %v", env, p, err)
		return ""
	}

	return p
}
