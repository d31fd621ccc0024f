package models

// Status is the outcome of a single point request.
type Status string

const (
	// StatusSuccess indicates the backend returned text for the point.
	StatusSuccess Status = "success"
	// StatusError indicates the point failed; ErrorKind says why.
	StatusError Status = "error"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusError:
		return true
	default:
		return false
	}
}

// ErrorKind classifies why a completion or point request failed.
type ErrorKind string

const (
	// ErrorKindTimeout indicates the request exceeded its time budget.
	ErrorKindTimeout ErrorKind = "Timeout"
	// ErrorKindRateLimited indicates the backend rejected the request for rate limiting.
	ErrorKindRateLimited ErrorKind = "RateLimited"
	// ErrorKindAuth indicates the credentials were missing or rejected.
	ErrorKindAuth ErrorKind = "Auth"
	// ErrorKindTransport indicates a network or server-side failure.
	ErrorKindTransport ErrorKind = "Transport"
	// ErrorKindMalformed indicates the request or response could not be understood.
	ErrorKindMalformed ErrorKind = "Malformed"
	// ErrorKindCancelled indicates the enclosing job was cancelled before the point settled.
	ErrorKindCancelled ErrorKind = "Cancelled"
)

// Valid returns true if the kind is a known value.
func (k ErrorKind) Valid() bool {
	switch k {
	case ErrorKindTimeout, ErrorKindRateLimited, ErrorKindAuth,
		ErrorKindTransport, ErrorKindMalformed, ErrorKindCancelled:
		return true
	default:
		return false
	}
}

// PointResult is the settled outcome of one dispatched point.
type PointResult struct {
	// Index mirrors the originating Point.
	Index int `json:"index" yaml:"index"`
	// Status is success or error.
	Status Status `json:"status" yaml:"status"`
	// Text is the elaboration; set only on success.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// ErrorKind is set only on error.
	ErrorKind ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	// Message is the failure detail; set only on error.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Succeeded returns a successful result for the given index.
func Succeeded(index int, text string) PointResult {
	return PointResult{Index: index, Status: StatusSuccess, Text: text}
}

// Failed returns an error result for the given index.
func Failed(index int, kind ErrorKind, message string) PointResult {
	return PointResult{Index: index, Status: StatusError, ErrorKind: kind, Message: message}
}

// OK reports whether the result is a success.
func (r PointResult) OK() bool {
	return r.Status == StatusSuccess
}
