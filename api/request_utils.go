package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestBodyBytes caps the size of a parsed JSON body
const MaxRequestBodyBytes = 100 * 1024

// RequestError represents an error that should be returned as an HTTP response
type RequestError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// ContentMissingError is returned when a create body has no content key
func ContentMissingError() *RequestError {
	return &RequestError{
		Status:  http.StatusBadRequest,
		Code:    "content_missing",
		Message: "content missing",
	}
}

// MalformedJSONError is returned for bodies that are not valid JSON
func MalformedJSONError() *RequestError {
	return &RequestError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_input",
		Message: "malformatted json",
	}
}

// PayloadTooLargeError is returned for bodies over MaxRequestBodyBytes
func PayloadTooLargeError() *RequestError {
	return &RequestError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "payload_too_large",
		Message: "request entity too large",
	}
}

// ParseRequestFields reads a JSON object body into its raw top-level fields.
// Bodies that are empty, not declared as JSON, or a JSON array yield no
// fields; the handlers then see every key as absent.
func ParseRequestFields(c *gin.Context) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}

	if !isJSONContentType(c.ContentType()) || c.Request.Body == nil {
		return fields, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodyBytes)
	bodyBytes, err := c.GetRawData()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, PayloadTooLargeError()
		}
		return nil, &RequestError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_input",
			Message: "failed to read request body",
		}
	}

	trimmed := bytes.TrimSpace(bodyBytes)
	if len(trimmed) == 0 {
		return fields, nil
	}
	if !json.Valid(trimmed) {
		return nil, MalformedJSONError()
	}

	switch trimmed[0] {
	case '{':
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, MalformedJSONError()
		}
		return fields, nil
	case '[':
		return fields, nil
	default:
		// only objects and arrays are accepted as top-level bodies
		return nil, MalformedJSONError()
	}
}

func isJSONContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return contentType == "" ||
		contentType == "application/json" ||
		strings.HasSuffix(contentType, "+json")
}
