package inference

import "errors"

var (
	ErrServiceUnavailable = errors.New("inference service unavailable")
	ErrInvalidResponse    = errors.New("invalid response from inference service")
)
