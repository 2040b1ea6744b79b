package extraction

import "errors"

var (
	// ErrGeneration marks a failed or empty generative backend call.
	ErrGeneration = errors.New("generation failed")
	// ErrSanitization marks a response without any JSON object in it.
	ErrSanitization = errors.New("no json object in response")
	// ErrDecode marks a sanitized response that is not valid JSON.
	ErrDecode = errors.New("decode response")
)
