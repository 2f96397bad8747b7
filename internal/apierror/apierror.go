// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so internals (stack
// traces, SQL errors) never reach the operator screen.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Title is the short headline shown on the toast; Detail the message under it.
type APIError struct {
	Title   string   `json:"title,omitempty"`
	Detail  string   `json:"detail"`
	Options []string `json:"options,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func WithTitle(title, detail string) *APIError {
	return &APIError{Title: title, Detail: detail}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}
