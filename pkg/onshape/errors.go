package onshape

import (
	"fmt"
	"net/http"
)

// maxErrorBody bounds the response body kept in a RequestError.
const maxErrorBody = 1000

// FormatError reports a document URL that does not match the expected shape.
type FormatError struct {
	URL      string
	Expected string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("onshape: invalid document URL %q: expected %s", e.URL, e.Expected)
}

// RequestError reports an API call that returned a response the client could not use:
// a non-success status, or an export response without a redirect location.
type RequestError struct {
	Op      string // "parts", "configuration", "encode", "export" or "download"
	Status  int
	URL     string
	Body    string
	Message string
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Body != "" {
		return fmt.Sprintf("onshape: %s: status %d: %s: %s", e.Op, e.Status, msg, e.Body)
	}
	return fmt.Sprintf("onshape: %s: status %d: %s", e.Op, e.Status, msg)
}
