package export

import "errors"

var (
	// ErrInvalidFilename indicates a filename that is empty or contains
	// prohibited characters.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrPathTraversal indicates a filename that would resolve outside the
	// configured base directory.
	ErrPathTraversal = errors.New("path traversal attempt")
	// ErrNoData indicates an export request with an empty series.
	ErrNoData = errors.New("no data to export")
)
