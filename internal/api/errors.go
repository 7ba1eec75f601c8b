package api

import "net/http"

// ErrorKind classifies a failed request. The kind alone decides the
// response status.
type ErrorKind int

const (
	ClientError ErrorKind = iota + 1
	MethodError
	ConfigError
	UpstreamError
)

func (k ErrorKind) StatusCode() int {
	switch k {
	case ClientError:
		return http.StatusBadRequest
	case MethodError:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func (k ErrorKind) String() string {
	switch k {
	case ClientError:
		return "client"
	case MethodError:
		return "method"
	case ConfigError:
		return "config"
	case UpstreamError:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is what a handler step returns instead of writing a response.
// Msg goes to the "error" field; Err, if set, to "message".
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (e *Error) body() errorBody {
	b := errorBody{Error: e.Msg}
	if e.Err != nil {
		b.Message = e.Err.Error()
	}
	return b
}
