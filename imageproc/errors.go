package imageproc

import "errors"

// Candidate-level failures. They are logged and the candidate is skipped;
// they never fail a whole Process call.
var (
	ErrFetch    = errors.New("imageproc: fetch failed")
	ErrNotImage = errors.New("imageproc: not an image")
	ErrDecode   = errors.New("imageproc: decode failed")
	ErrTooSmall = errors.New("imageproc: image too small")
	ErrTooLarge = errors.New("imageproc: image too large")
)
