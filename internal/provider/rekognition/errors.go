package rekognition

import "errors"

var (
	// ErrCollectionNotFound means the face collection has not been created yet
	ErrCollectionNotFound = errors.New("rekognition collection not found")

	ErrCollectionAlreadyExists = errors.New("rekognition collection already exists")

	// ErrInvalidCredentials covers missing credentials and denied access alike
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrThrottled is returned when the account is over its Rekognition TPS quota.
	// The frame is answered with a provider failure and the next one retries.
	ErrThrottled = errors.New("rekognition request throttled")
)
