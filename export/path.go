package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// filenameProhibitedChars are rejected in user-supplied filenames. The set
// mirrors the command validation: shell metacharacters, quotes and line
// breaks have no place in a filename that ends up in logs and shells.
const filenameProhibitedChars = "|;&$`<>\"'\n\r"

// SanitizeFilename validates a user-supplied filename and strips any
// directory components, returning the bare name. Empty names, NUL bytes,
// ".." sequences and prohibited characters fail with ErrInvalidFilename.
func SanitizeFilename(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidFilename)
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: contains NUL byte", ErrInvalidFilename)
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: contains traversal sequence", ErrInvalidFilename)
	}
	if strings.ContainsAny(name, filenameProhibitedChars) {
		return "", fmt.Errorf("%w: contains prohibited characters", ErrInvalidFilename)
	}

	// Strip directories, accepting both separator conventions.
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("%w: no filename component", ErrInvalidFilename)
	}

	return base, nil
}

// ResolveInBase sanitizes name and resolves it inside baseDir, guaranteeing
// the result cannot escape the base directory.
func ResolveInBase(baseDir, name string) (string, error) {
	safe, err := SanitizeFilename(name)
	if err != nil {
		return "", err
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	full := filepath.Join(absBase, safe)
	rel, err := filepath.Rel(absBase, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q escapes %q", ErrPathTraversal, name, baseDir)
	}

	return full, nil
}

// TimestampedName builds a default export filename from a prefix, the
// current time and an extension, e.g. "dmm_series_2026-08-27_14-03-59.csv".
func TimestampedName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("2006-01-02_15-04-05"), ext)
}
