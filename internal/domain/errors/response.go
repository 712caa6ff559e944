package errors

// ErrorInfo contains detailed error information rendered to API callers.
type ErrorInfo struct {
	Code    string `json:"code"`              // Business error code, e.g., "INVALID_GRANT"
	Details string `json:"details,omitempty"` // Detailed error description (optional)
}

// Response is the unified API response envelope shared by handlers and
// the central error middleware.
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`    // HTTP status code
	Message string     `json:"message"` // User-friendly message
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}
