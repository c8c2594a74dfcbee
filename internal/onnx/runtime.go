// Package onnx loads ONNX graphs through the purego ONNX Runtime binding.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/example/go-ppg-tts/internal/config"
)

// UnknownVersion is reported when the runtime version cannot be determined.
const UnknownVersion = "unknown"

// ErrRuntimeNotFound is returned when no ONNX Runtime library can be located.
var ErrRuntimeNotFound = errors.New("onnx runtime library not found")

type RuntimeInfo struct {
	LibraryPath string
	Version     string
}

var semver = regexp.MustCompile(`\d+\.\d+\.\d+`)

var wellKnownLibraries = []string{
	"/usr/lib/libonnxruntime.so",
	"/usr/local/lib/libonnxruntime.so",
	"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	"/usr/lib/aarch64-linux-gnu/libonnxruntime.so",
	"/opt/homebrew/lib/libonnxruntime.dylib",
	"/usr/local/lib/libonnxruntime.dylib",
	"C:/onnxruntime/lib/onnxruntime.dll",
}

// DetectRuntime locates the ONNX Runtime shared library. The configured path
// wins, then PPGTTS_ORT_LIB, then ORT_LIBRARY_PATH, then well-known install
// locations. ORT_VERSION overrides the version guessed from the file name.
func DetectRuntime(cfg config.RuntimeConfig) (RuntimeInfo, error) {
	info := RuntimeInfo{Version: UnknownVersion}

	info.LibraryPath = firstNonEmpty(cfg.ORTLibraryPath, os.Getenv("PPGTTS_ORT_LIB"), os.Getenv("ORT_LIBRARY_PATH"))
	if info.LibraryPath == "" {
		for _, p := range wellKnownLibraries {
			if isFile(p) {
				info.LibraryPath = p
				break
			}
		}
	}

	if info.LibraryPath == "" {
		return info, ErrRuntimeNotFound
	}

	if _, err := os.Stat(info.LibraryPath); err != nil {
		return info, fmt.Errorf("%w: %w", ErrRuntimeNotFound, err)
	}

	if v := firstNonEmpty(os.Getenv("ORT_VERSION"), semver.FindString(filepath.Base(info.LibraryPath))); v != "" {
		info.Version = v
	}

	return info, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
