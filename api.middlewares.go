package main

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// MiddlewareFunc decorates a router handle.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is an ordered stack of middlewares. The first one
// is the outermost once chained.
type Middlewares []MiddlewareFunc

// MiddlewaresStacks returns the public stack used by catalog routes and
// the ops stack which skips cors and maintenance mode.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares) {
	public := &Middlewares{
		api.RequestIDMiddleware,
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		CORSMiddleware,
		api.CoreMiddleware,
		api.MaintenanceModeMiddleware,
	}

	ops := &Middlewares{
		api.RequestIDMiddleware,
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.CoreMiddleware,
	}
	return public, ops
}

// CoreMiddleware puts a request scoped logger into the context, records the
// response status into the statistics and logs the request and its outcome.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := api.clock.Now()
		logger := api.logger.With(
			zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
			zap.Uint64("request.num", GetRequestNumberFromContext(r.Context())),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
		)
		r = r.WithContext(context.WithValue(r.Context(), LoggerContextKey, logger))

		logger.Info("request received",
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		cw := NewCustomResponseWriter(w, GetConnFromContext(r.Context()))
		next(cw, r, ps)

		api.stats.mu.Lock()
		api.stats.status[cw.Status()]++
		api.stats.mu.Unlock()

		logger.Info("request completed",
			zap.Int("response.status", cw.Status()),
			zap.Int("response.bytes", cw.Bytes()),
			zap.Duration("request.duration", api.clock.Now().Sub(start)),
		)
	}
}

// RequestsCounterMiddleware counts the request and exposes its
// number into the context for logging.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		num := atomic.AddUint64(&api.stats.called, 1)
		next(w, r.WithContext(context.WithValue(r.Context(), RequestNumberContextKey, num)), ps)
	}
}

// RequestIDMiddleware tags the request with a fresh id, both in the
// context and in the response headers.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := api.idsHandler.Generate(RequestIDPrefix)
		w.Header().Set(RequestIDHeader, requestID)
		next(w, r.WithContext(context.WithValue(r.Context(), RequestIDContextKey, requestID)), ps)
	}
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
	h.Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, User-Agent, Accept-Language, Referer, Cache-Control")
}

// CORSMiddleware allows browsers from any origin to call the catalog.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		setCORSHeaders(w.Header())
		next(w, r, ps)
	}
}

// Preflight answers the OPTIONS requests the router handles on its own.
// The router has already set the Allow header for the matched path.
func Preflight() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Access-Control-Request-Method") != "" {
			setCORSHeaders(w.Header())
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// MaintenanceModeMiddleware answers 503 with the maintenance message while the mode is on.
func (api *APIHandler) MaintenanceModeMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !api.mode.enabled.Load() {
			next(w, r, ps)
			return
		}
		state := api.mode.state()
		if state.Message == "" {
			state.Message = "service currently unavailable."
		}
		w.Header().Set("Retry-After", "120")
		api.respond(w, r, http.StatusServiceUnavailable, &APIResponse{
			Status:  StatusFail,
			Message: state.Message,
			Data:    map[string]string{"since": state.Started},
		})
	}
}

// PanicRecoveryMiddleware turns a panicking handler into a logged error and a 500 fail response.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
			api.logger.Error("recovered from panic", zap.String("request.id", requestID), zap.Any("panic", rec), zap.Stack("stack"))
			if err := WriteJSON(w, http.StatusInternalServerError, FailResponse("failed to process the request.")); err != nil {
				api.logger.Error("failed to send panic response", zap.String("request.id", requestID), zap.Error(err))
			}
		}()
		next(w, r, ps)
	}
}

// Chain wraps h so that the stack runs in order before it.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	handle := h
	for i := len(*m) - 1; i >= 0; i-- {
		handle = (*m)[i](handle)
	}
	return handle
}
