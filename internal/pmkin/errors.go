package pmkin

import (
	"encoding/json"
	"errors"
)

// ErrInvalidResponse matches any *InvalidResponseError via errors.Is.
var ErrInvalidResponse = errors.New("pmkin: invalid response")

const msgInvalidResponse = "The response is undefined or empty."

// InvalidResponseError reports a successful response whose collection field
// was missing or null. Response holds the raw "data" payload.
type InvalidResponseError struct {
	Message  string
	Response json.RawMessage
}

func (e *InvalidResponseError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrInvalidResponse) true.
func (e *InvalidResponseError) Is(target error) bool {
	return target == ErrInvalidResponse
}

func newInvalidResponseError(data []byte) *InvalidResponseError {
	return &InvalidResponseError{
		Message:  msgInvalidResponse,
		Response: json.RawMessage(data),
	}
}
