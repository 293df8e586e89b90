package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"

	jsonContentType = "application/json; charset=UTF-8"
)

// CustomResponseWriter records the status code and the body size of a
// response for logging and statistics. It keeps the client connection
// so that handlers can adjust its deadlines.
type CustomResponseWriter struct {
	http.ResponseWriter
	conn  net.Conn
	code  int
	bytes int
	wrote bool
}

// NewCustomResponseWriter wraps rw. The status defaults to 200 until set.
func NewCustomResponseWriter(rw http.ResponseWriter, c net.Conn) *CustomResponseWriter {
	return &CustomResponseWriter{
		ResponseWriter: rw,
		conn:           c,
		code:           http.StatusOK,
	}
}

// WriteHeader keeps the first status code only, like net/http does.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if !cw.wrote {
		cw.code = code
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

func (cw *CustomResponseWriter) Write(b []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(cw.code)
	}

	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// Status returns the response status code.
func (cw *CustomResponseWriter) Status() int {
	return cw.code
}

// Bytes returns the size of the body sent so far.
func (cw *CustomResponseWriter) Bytes() int {
	return cw.bytes
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// SetWriteDeadline moves the write deadline of the client connection.
func (cw *CustomResponseWriter) SetWriteDeadline(t time.Time) error {
	if cw.conn == nil {
		return http.ErrNotSupported
	}
	return cw.conn.SetWriteDeadline(t)
}

// SetReadDeadline moves the read deadline of the client connection.
func (cw *CustomResponseWriter) SetReadDeadline(t time.Time) error {
	if cw.conn == nil {
		return http.ErrNotSupported
	}
	return cw.conn.SetReadDeadline(t)
}

// APIResponse is the envelope of every book endpoint response.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse builds a success envelope.
func SuccessResponse(message string, data interface{}) *APIResponse {
	return &APIResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// FailResponse builds a fail envelope.
func FailResponse(message string) *APIResponse {
	return &APIResponse{
		Status:  StatusFail,
		Message: message,
	}
}

// WriteResponse sends the api response to client with the given status code. In case the client
// closed the request, it records the Nginx non standard status code 499 (Client Closed Request).
// In case of request processing timeout we record 504. In both cases the timeout handler already
// answered so nothing is written.
func WriteResponse(ctx context.Context, w http.ResponseWriter, code int, resp *APIResponse) error {
	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		w.WriteHeader(http.StatusGatewayTimeout)
		return err
	case err != nil:
		w.WriteHeader(499)
		return err
	}
	return WriteJSON(w, code, resp)
}

// WriteJSON sends any json document with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) error {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
