// Package respond writes the JSON envelopes used by every REST handler:
// {"success":true,"data":...} on success and {"success":false,"error":...,"code":...} on failure.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

// Code is a machine-readable error code carried in error bodies.
type Code string

const (
	CodeInvalidRequest  Code = "INVALID_REQUEST"
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeServiceDown     Code = "SERVICE_UNAVAILABLE"
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// Auth
	CodeNoToken                Code = "NO_TOKEN"
	CodeTokenExpired           Code = "TOKEN_EXPIRED"
	CodeInvalidToken           Code = "INVALID_TOKEN"
	CodeInsufficientPrivileges Code = "INSUFFICIENT_PRIVILEGES"
	CodeInvalidCredentials     Code = "INVALID_CREDENTIALS"
	CodeEmailExists            Code = "EMAIL_EXISTS"
	CodeInvalidRefreshToken    Code = "INVALID_REFRESH_TOKEN"
	CodeRefreshTokenReuse      Code = "REFRESH_TOKEN_REUSE"
	CodeForbidden              Code = "FORBIDDEN"

	// Tenant
	CodeTenantNotFound   Code = "TENANT_NOT_FOUND"
	CodeNoTenantContext  Code = "NO_TENANT_CONTEXT"
	CodeInvalidDateRange Code = "INVALID_DATE_RANGE"
)

// MaxBodyBytes bounds JSON request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// ErrorBody is the failure envelope. Message is optional detail beyond Error.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type successBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope with data and status 200.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, successBody{Success: true, Data: data})
}

// Created writes a success envelope with data, message and status 201.
func Created(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusCreated, successBody{Success: true, Data: data, Message: message})
}

// Message writes a success envelope carrying only a message.
func Message(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, successBody{Success: true, Message: message})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, code Code, msg string) {
	JSON(w, status, ErrorBody{Success: false, Error: msg, Code: code})
}

// ErrorWithMessage writes a failure envelope with an extra human-readable message.
func ErrorWithMessage(w http.ResponseWriter, status int, code Code, msg, detail string) {
	JSON(w, status, ErrorBody{Success: false, Error: msg, Code: code, Message: detail})
}

// BadRequest writes a 400 validation failure.
func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, CodeValidation, msg)
}

// NotFound writes a 404 failure.
func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, CodeNotFound, msg)
}

// Internal writes a 500 failure with a generic message; details belong in the log.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
}

// TooManyRequests writes a 429 with Retry-After in seconds.
func TooManyRequests(w http.ResponseWriter, retryAfterSeconds int) {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	Error(w, http.StatusTooManyRequests, CodeRateLimited, "Too many requests")
}

// DecodeJSON decodes the request body into v. Unknown fields are allowed; an empty or
// oversized body is an error.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

// QueryInt parses a non-negative integer query parameter, returning def when absent or invalid.
func QueryInt(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
