package apperr

import "errors"

// ErrInvalidInput is returned when a target or an argument fails validation.
// Use errors.Is(err, apperr.ErrInvalidInput) to detect validation failures uniformly.
var ErrInvalidInput = errors.New("invalid input")

// ErrRequestFailed is returned by the NetGeo client when the request fails at the
// transport level or the server responds with a non-2xx status code.
var ErrRequestFailed = errors.New("request failed")

// ErrCapacity is returned when a batch holds more targets than the configured limit.
// Nothing is looked up when this error is returned.
var ErrCapacity = errors.New("batch limit exceeded")

// ErrStorage is returned when the lookup cache cannot be read from or written to
// its backing location. A batch whose cache flush fails returns ErrStorage instead
// of its results.
var ErrStorage = errors.New("cache storage error")
