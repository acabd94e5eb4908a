package server

import (
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Route binds one HTTP method and path to a handler.
type Route struct {
	Method  string
	Path    string
	Handler http.Handler
}

// BasicRouter dispatches on exact path, then method.
//
// Paths are matched exactly; a trailing slash is part of the path. A known path requested with an unregistered
// method is answered by the not-allowed handler with an Allow header listing the registered methods.
type BasicRouter struct {
	mux         *http.ServeMux
	routes      map[string]map[string]http.Handler
	middlewares []Middleware
	notAllowed  http.Handler
}

// NewBasicRouter creates a new [BasicRouter] with a plain-text 405 response.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:    http.NewServeMux(),
		routes: map[string]map[string]http.Handler{},
		notAllowed: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}),
	}
}

// Use adds [Middleware] to the stack. Only routes registered afterwards are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// NotAllowed replaces the handler for known paths requested with the wrong method.
func (r *BasicRouter) NotAllowed(handler http.Handler) {
	r.notAllowed = handler
}

// Handle registers handler for method on path, wrapped with the current middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	methods, ok := r.routes[path]
	if !ok {
		methods = map[string]http.Handler{}
		r.routes[path] = methods
		r.mux.Handle(pattern(path), r.dispatch(path))
	}
	methods[strings.ToUpper(method)] = r.Apply(handler)
}

// Handler registers every route declared by handler.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(route.Method, route.Path, route.Handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

func (r *BasicRouter) dispatch(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		methods := r.routes[path]
		if h, ok := methods[req.Method]; ok {
			h.ServeHTTP(w, req)
			return
		}
		w.Header().Set("Allow", strings.Join(slices.Sorted(maps.Keys(methods)), ", "))
		r.Apply(r.notAllowed).ServeHTTP(w, req)
	})
}

// pattern turns path into a [http.ServeMux] pattern that matches it exactly.
func pattern(path string) string {
	if strings.HasSuffix(path, "/") {
		return path + "{$}"
	}
	return path
}
