package main

import (
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// number of goroutines, refreshed on each /ops/debug/vars call.
var goroutines = expvar.NewInt("goroutines")

// NotFound answers requests on unknown routes with a json message.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := api.idsHandler.Generate(RequestIDPrefix)
		w.Header().Set(RequestIDHeader, requestID)
		api.writeOps(w, requestID, http.StatusNotFound, map[string]interface{}{
			"requestid": requestID,
			"status":    StatusFail,
			"message":   "route does not exist",
			"path":      r.Method + " " + r.URL.Path,
		})
	})
}

// writeOps sends an ops document and logs when it could not be sent.
func (api *APIHandler) writeOps(w http.ResponseWriter, requestID string, code int, v interface{}) {
	if err := WriteJSON(w, code, v); err != nil {
		api.logger.Error("failed to send ops response", zap.String("request.id", requestID), zap.Int("response.code", code), zap.Error(err))
	}
}

// maintenanceState is a consistent copy of the maintenance mode.
type maintenanceState struct {
	Enabled bool   `json:"enabled"`
	Started string `json:"started"`
	Message string `json:"message"`
}

func (m *Maintenance) enable(message string, at time.Time) maintenanceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.message = message
	m.started = at
	m.enabled.Store(true)
	return maintenanceState{Enabled: true, Started: at.Format(time.RFC1123), Message: message}
}

func (m *Maintenance) disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled.Store(false)
	m.message = ""
	m.started = time.Time{}
}

func (m *Maintenance) state() maintenanceState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := maintenanceState{Enabled: m.enabled.Load(), Message: m.message}
	if !m.started.IsZero() {
		s.Started = m.started.Format(time.RFC1123)
	}
	return s
}

// Maintenance switches the maintenance mode of the public endpoints.
//
//	/ops/maintenance?status=enable&msg=text-shown-to-users
//	/ops/maintenance?status=disable
//
// Without status the current mode is returned.
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	q := r.URL.Query()

	switch q.Get("status") {
	case "enable":
		state := api.mode.enable(q.Get("msg"), api.clock.Now().UTC())
		api.GetLoggerFromContext(r.Context()).Warn("maintenance mode enabled", zap.String("maintenance.message", state.Message))
		api.writeOps(w, requestID, http.StatusOK, map[string]interface{}{
			"requestid":   requestID,
			"message":     "maintenance mode enabled",
			"maintenance": state,
		})
	case "disable":
		api.mode.disable()
		api.GetLoggerFromContext(r.Context()).Warn("maintenance mode disabled")
		api.writeOps(w, requestID, http.StatusOK, map[string]interface{}{
			"requestid": requestID,
			"message":   "maintenance mode disabled",
		})
	case "":
		state := api.mode.state()
		api.writeOps(w, requestID, http.StatusOK, map[string]interface{}{
			"requestid": requestID,
			"enabled":   state.Enabled,
			"started":   state.Started,
			"message":   state.Message,
		})
	default:
		api.writeOps(w, requestID, http.StatusBadRequest, map[string]interface{}{
			"requestid": requestID,
			"message":   "status must be enable or disable",
		})
	}
}

// GetMemStats serves the expvar variables, memstats and cmdline included.
func GetMemStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	goroutines.Set(int64(runtime.NumGoroutine()))
	expvar.Handler().ServeHTTP(w, r)
}

// RunGC triggers a garbage collection in background.
func (api *APIHandler) RunGC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go runtime.GC()
	api.writeOps(w, GetValueFromContext(r.Context(), RequestIDContextKey), http.StatusOK, map[string]string{"called": "runtime.GC()"})
}

// FreeOSMemory triggers in background a garbage collection which
// also returns as much memory as possible to the system.
func (api *APIHandler) FreeOSMemory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go debug.FreeOSMemory()
	api.writeOps(w, GetValueFromContext(r.Context(), RequestIDContextKey), http.StatusOK, map[string]string{"called": "debug.FreeOSMemory()"})
}

// GetStatistics reports build, runtime and traffic details. The
// request asking for them is excluded from the calls counter.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)

	called := atomic.LoadUint64(&api.stats.called)
	if called > 0 {
		called--
	}

	api.stats.mu.RLock()
	status := make(map[int]uint64, len(api.stats.status))
	for code, count := range api.stats.status {
		status[code] = count
	}
	api.stats.mu.RUnlock()

	api.writeOps(w, requestID, http.StatusOK, map[string]interface{}{
		"requestid":     requestID,
		"app.version":   api.stats.version,
		"app.container": api.stats.container,
		"app.platform":  api.stats.platform,
		"go.version":    api.stats.runtime,
		"started":       api.stats.started.Format(time.RFC1123),
		"uptime":        fmt.Sprintf("%.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		"called":        called,
		"status":        status,
		"maintenance":   api.mode.state(),
	})
}

// GetConfigs serves the configuration in use. Credentials are never serialized.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	api.writeOps(w, requestID, http.StatusOK, map[string]interface{}{"requestid": requestID, "configs": api.config})
}

// ListEvents serves the archived catalog change events.
func (api *APIHandler) ListEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	events, err := api.archive.GetAll(r.Context())
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to read events archive", zap.Error(err))
		api.respond(w, r, http.StatusInternalServerError, FailResponse("failed to get events"))
		return
	}
	api.respond(w, r, http.StatusOK, SuccessResponse("", map[string]interface{}{"events": events}))
}

// OpsHandlerWrapper adapts a standard handler to the router.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

func (api *APIHandler) GetCPUProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Profile(w, r)
}

func (api *APIHandler) GetTraceProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Trace(w, r)
}

func (api *APIHandler) GetSymbol(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Symbol(w, r)
}

func (api *APIHandler) GetCmdLine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Cmdline(w, r)
}
