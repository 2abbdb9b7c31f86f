package main

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

// routes wires every endpoint and wraps the router in the outer middleware
// that must also see unmatched requests. From the outside in: route scope,
// tracing, metrics, request log, panic recovery, CORS, rate limit.
func (a *app) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(captureRoute)
	r.NotFoundHandler = http.HandlerFunc(a.notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(a.methodNotAllowedHandler)

	r.HandleFunc("/", a.rootHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", a.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/api-docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/api-docs/doc.json")))
	r.Handle("/api-docs", http.RedirectHandler("/api-docs/index.html", http.StatusMovedPermanently))

	api := r.PathPrefix("/api/orders").Subrouter()
	api.HandleFunc("", a.listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("", a.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}", a.getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", a.updateOrderHandler).Methods(http.MethodPut)
	api.HandleFunc("/{id}", a.deleteOrderHandler).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/status", a.updateOrderStatusHandler).Methods(http.MethodPatch)

	var h http.Handler = r
	if a.limiter != nil {
		h = a.limiter.middleware(h)
	}
	h = handlers.CORS(
		handlers.AllowedOrigins(a.origins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Traceparent"}),
	)(h)
	h = a.recoverMiddleware(h)
	h = a.logMiddleware(h)
	h = a.metricsMiddleware(h)
	h = a.traceMiddleware(h)
	return routeScope(h)
}
