package live

import "fmt"

// Error represents a failure reported by the Gemini Live service or
// during connection establishment.
type Error struct {
	// Code is a short machine-readable code, e.g. "connection_failed".
	Code string `json:"code,omitzero"`

	// Status is the RPC status name reported by the service, if any.
	Status string `json:"status,omitzero"`

	// Message is the human-readable error message.
	Message string `json:"message,omitzero"`

	// HTTPStatus is the HTTP status code, if applicable.
	HTTPStatus int `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("live: %s: %s", e.Code, e.Message)
	}
	if e.Status != "" {
		return fmt.Sprintf("live: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("live: %s", e.Message)
}

func (e *wireError) toError() *Error {
	return &Error{
		Code:    fmt.Sprintf("rpc_%d", e.Code),
		Status:  e.Status,
		Message: e.Message,
	}
}
