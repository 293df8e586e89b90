package main

import (
	"net/http"
	"net/http/pprof"

	_ "github.com/jeamon/bookshelf/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// runtime profiles served under /ops/debug/pprof/.
var pprofProfiles = []string{"heap", "allocs", "goroutine", "threadcreate", "block", "mutex"}

// MiddlewareMap holds the chains applied to public
// catalog routes and to internal ops routes.
type MiddlewareMap struct {
	public MiddlewareFunc
	ops    MiddlewareFunc
}

// SetupRoutes registers the catalog routes, the api docs and, when enabled, the ops routes.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	router.GlobalOPTIONS = Preflight()

	api.SetupBookRoutes(router, m)
	router.GET("/swagger/*any", m.ops(api.OpsHandlerWrapper(httpswagger.WrapHandler)))

	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	return router
}

func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))

	router.POST("/books", m.public(api.AddBook))
	router.GET("/books", m.public(api.ListBooks))
	router.GET("/books/:bookId", m.public(api.GetBook))
	router.PUT("/books/:bookId", m.public(api.UpdateBook))
	router.DELETE("/books/:bookId", m.public(api.DeleteBook))
	return router
}

// SetupOpsRoutes registers the internal endpoints. They are never
// blocked by the maintenance mode.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	ops := map[string]httprouter.Handle{
		"/ops/configs":     api.GetConfigs,
		"/ops/stats":       api.GetStatistics,
		"/ops/maintenance": api.Maintenance,
		"/ops/debug/vars":  GetMemStats,
		"/ops/debug/gc":    api.RunGC,
		"/ops/debug/fos":   api.FreeOSMemory,
	}
	if api.archive != nil {
		ops["/ops/events"] = api.ListEvents
	}

	if api.config.ProfilerEndpointsEnable {
		ops["/ops/debug/pprof/"] = api.OpsHandlerWrapper(http.HandlerFunc(pprof.Index))
		ops["/ops/debug/pprof/profile"] = api.GetCPUProfile
		ops["/ops/debug/pprof/trace"] = api.GetTraceProfile
		ops["/ops/debug/pprof/symbol"] = api.GetSymbol
		ops["/ops/debug/pprof/cmdline"] = api.GetCmdLine
		for _, name := range pprofProfiles {
			ops["/ops/debug/pprof/"+name] = api.OpsHandlerWrapper(pprof.Handler(name))
		}
	}

	for path, handle := range ops {
		router.GET(path, m.ops(handle))
	}
	return router
}
