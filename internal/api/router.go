package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/eventnest/server/internal/api/handlers"
	"github.com/eventnest/server/internal/api/middleware"
	"github.com/eventnest/server/internal/api/problem"
	"github.com/eventnest/server/internal/audit"
	"github.com/eventnest/server/internal/config"
	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/eventnest/server/internal/domain/events"
	"github.com/eventnest/server/internal/metrics"
	"github.com/eventnest/server/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Router is the fully wrapped HTTP handler. Close stops background work
// owned by the middleware.
type Router struct {
	http.Handler
	limiter *middleware.RateLimiter
}

func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Stop()
	}
}

func NewRouter(store storage.Store, cfg config.Config, logger zerolog.Logger, build BuildInfo) *Router {
	driver, _ := cfg.Database.Driver()
	build = build.withDefaults()

	accountsService := accounts.NewService(store, logger)
	eventsService := events.NewService(store, logger)

	auditLogger := audit.NewLogger(logger)
	accountsHandler := handlers.NewAccountsHandler(accountsService, auditLogger, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, auditLogger, cfg.Environment)
	healthChecker := handlers.NewHealthChecker(store, driver, build.Version, build.GitCommit)

	env := cfg.Environment
	mux := http.NewServeMux()

	createUser := methodMux(env, map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(accountsHandler.Create),
	})
	mux.Handle("/users", createUser)
	mux.Handle("/users/{$}", createUser)
	mux.Handle("/users/{id}", methodMux(env, map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(accountsHandler.Get),
		http.MethodPut:    http.HandlerFunc(accountsHandler.Update),
		http.MethodDelete: http.HandlerFunc(accountsHandler.Delete),
	}))

	eventCollection := methodMux(env, map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.List),
		http.MethodPost: http.HandlerFunc(eventsHandler.Create),
	})
	mux.Handle("/events", eventCollection)
	mux.Handle("/events/{$}", eventCollection)
	mux.Handle("/events/{id}", methodMux(env, map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(eventsHandler.Get),
		http.MethodPut:    http.HandlerFunc(eventsHandler.Update),
		http.MethodDelete: http.HandlerFunc(eventsHandler.Delete),
	}))

	mux.Handle("GET /health", healthChecker.Health())
	mux.Handle("GET /version", VersionHandler(build))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	limiter := middleware.NewRateLimiter(cfg.RateLimit, env)

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestSize(middleware.DefaultMaxBodySize)(handler)
	handler = limiter.Middleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(logger)(handler)

	return &Router{Handler: handler, limiter: limiter}
}

func methodMux(env string, handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if method == http.MethodHead {
			if _, ok := handlers[http.MethodHead]; !ok {
				method = http.MethodGet
			}
		}
		if handler, ok := handlers[method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		allowed := allowedMethods(handlers)
		w.Header().Set("Allow", allowed)
		problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeMethodNotAllowed, "Method not allowed",
			fmt.Errorf("method %s not allowed", r.Method), env,
			problem.WithDetail("Allowed methods: "+allowed))
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	if _, ok := handlers[http.MethodGet]; ok {
		if _, ok := handlers[http.MethodHead]; !ok {
			methods = append(methods, http.MethodHead)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
