package forecast

import "errors"

var (
	// ErrDataUnavailable indicates the store holds nothing for the requested
	// key; callers receive explicit markers rather than zero-filled output
	ErrDataUnavailable = errors.New("no data available for request")

	// ErrInvalidRequest indicates a malformed or out-of-range request;
	// nothing is computed
	ErrInvalidRequest = errors.New("invalid request")
)
