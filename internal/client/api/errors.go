package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrCSRFRejected matches a StatusError with code 403: the server refused
// the anti-forgery token.
var ErrCSRFRejected = errors.New("csrf token rejected")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server error: %d %s", e.Code, e.Message)
}

// Is reports whether target is ErrCSRFRejected and the status is 403.
func (e *StatusError) Is(target error) bool {
	return target == ErrCSRFRejected && e.Code == http.StatusForbidden
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

const maxMessageLen = 200

// newStatusError builds a StatusError, taking the message from a JSON
// "error" or "message" field when present.
func newStatusError(code int, body []byte) *StatusError {
	msg := ""
	if gjson.ValidBytes(body) {
		res := gjson.GetManyBytes(body, "error", "message")
		for _, r := range res {
			if r.Type == gjson.String && r.Str != "" {
				msg = r.Str
				break
			}
		}
	} else {
		msg = strings.TrimSpace(string(body))
	}
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}
	return &StatusError{Code: code, Message: msg}
}
