package types

// ErrorBody is the inner error payload. Code is a stable machine-readable
// identifier (e.g. TRANSITION_400), Message is safe to show an operator.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody under the "error" key every API failure
// response carries.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds the API error payload. details is optional and
// may be a string, map or struct.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
