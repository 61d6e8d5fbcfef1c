// Package response writes JSON:API error documents.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yahoo/elide-sub004/internal/dictionary"
	"github.com/yahoo/elide-sub004/internal/docs"
)

// ErrorObject is one entry of a JSON:API errors document
type ErrorObject struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// ErrorDocument is the top level JSON:API errors document
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// StatusOf returns the HTTP status carried by err, or 500
func StatusOf(err error) int {
	var sc dictionary.HTTPStatusError
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// RenderErrors writes a JSON:API errors document with one error per detail
func RenderErrors(w http.ResponseWriter, status int, details ...string) {
	doc := ErrorDocument{}
	for _, detail := range details {
		doc.Errors = append(doc.Errors, ErrorObject{
			Status: strconv.Itoa(status),
			Code:   errorCodeFromStatus(status),
			Title:  http.StatusText(status),
			Detail: detail,
		})
	}
	if len(doc.Errors) == 0 {
		doc.Errors = []ErrorObject{{
			Status: strconv.Itoa(status),
			Code:   errorCodeFromStatus(status),
			Title:  http.StatusText(status),
		}}
	}

	w.Header().Set("Content-Type", docs.JSONAPIMediaType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

// RenderError renders err with the status it carries. Internal errors are
// not echoed to the client.
func RenderError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		RenderErrors(w, status)
		return
	}
	RenderErrors(w, status, err.Error())
}

// RenderUnauthorized renders a 401 with a bearer challenge
func RenderUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="elide"`)
	RenderErrors(w, http.StatusUnauthorized, detail)
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, detail string) {
	RenderErrors(w, http.StatusNotFound, detail)
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusNotAcceptable:
		return "not_acceptable"
	case http.StatusRequestTimeout:
		return "request_timeout"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "error"
	}
}
