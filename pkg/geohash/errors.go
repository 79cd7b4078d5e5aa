package geohash

import "errors"

var (
	// ErrInvalidGeohash reports an empty or malformed cell, a character outside
	// the base32 alphabet, or a non-finite coordinate/precision passed to Encode.
	ErrInvalidGeohash = errors.New("invalid geohash")

	// ErrInvalidDirection reports a direction other than n, s, e or w.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrTooManyCells is returned by Contained when WithMaxCells is exceeded.
	ErrTooManyCells = errors.New("bounding box exceeds cell limit")
)
