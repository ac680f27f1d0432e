// Package export writes measurement series, waveform records and statistics
// to CSV and JSON files. All destination paths are sanitized and resolved
// inside a configured base directory so user-supplied filenames can never
// escape it.
package export
