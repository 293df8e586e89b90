package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
)

var errInvalidPayload = errors.New("invalid request payload")

type (
	ContextKey      string
	validationError string
)

const (
	RequestIDPrefix         string     = "r"
	RequestIDHeader         string     = "X-Request-ID"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
	ConnContextKey          ContextKey = "http-conn"
)

// Validation failures messages sent back to clients.
const (
	msgNameRequired          validationError = "name is required"
	msgNameRequiredForUpdate validationError = "name is required for update"
	msgReadPageExceeds       validationError = "readPage cannot exceed pageCount"
	msgNegativePages         validationError = "pageCount and readPage must be non-negative"
)

func (v validationError) Error() string {
	return string(v)
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

// DecodeBookRequestBody reads the content of a book creation or update request.
// An empty body is accepted and leaves the payload untouched. Anything
// but whitespace after the json object makes the payload invalid.
func DecodeBookRequestBody(r *http.Request, payload *BookPayload) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(payload)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.Join(errInvalidPayload, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errInvalidPayload
	}
	return nil
}

// ValidateAddBookPayload checks the book creation payload. Checks run in a fixed order
// and the first failure is returned.
func ValidateAddBookPayload(payload *BookPayload) error {
	return validateBookPayload(payload, msgNameRequired)
}

// ValidateUpdateBookPayload checks the book update payload. It must run before
// looking for the book so that invalid payloads are reported first.
func ValidateUpdateBookPayload(payload *BookPayload) error {
	return validateBookPayload(payload, msgNameRequiredForUpdate)
}

func validateBookPayload(payload *BookPayload, missingName validationError) error {
	if payload.Name == nil || len(*payload.Name) == 0 {
		return missingName
	}

	if payload.ReadPage > payload.PageCount {
		return msgReadPageExceeds
	}

	if payload.PageCount < 0 || payload.ReadPage < 0 {
		return msgNegativePages
	}

	return nil
}

// ParseBookFilter extracts the listing filters from the query string.
// A parameter is considered present as soon as its key exists.
func ParseBookFilter(r *http.Request) BookFilter {
	var f BookFilter
	q := r.URL.Query()
	if q.Has("name") {
		v := q.Get("name")
		f.Name = &v
	}
	if q.Has("reading") {
		v := q.Get("reading")
		f.Reading = &v
	}
	if q.Has("finished") {
		v := q.Get("finished")
		f.Finished = &v
	}
	return f
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

// SaveConnInContext is the hook used by the server under ConnContext.
// It sets the underlying connection into the request context for later
// use by the write deadline methods of *CustomResponseWriter.
func SaveConnInContext(ctx context.Context, c net.Conn) context.Context {
	return context.WithValue(ctx, ConnContextKey, c)
}

// GetConnFromContext returns the connection saved into the context or nil.
func GetConnFromContext(ctx context.Context) net.Conn {
	if c, ok := ctx.Value(ConnContextKey).(net.Conn); ok {
		return c
	}
	return nil
}
