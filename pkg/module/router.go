package module

import (
	"net/http"
	"sort"
	"strings"
)

// Router dispatches requests to the mounted module with the longest
// matching prefix, falling back to a native ServeMux.
type Router struct {
	modules []*Module
	native  *http.ServeMux
}

// NewRouter creates a Router with no modules and an empty native mux.
func NewRouter() *Router {
	return &Router{native: http.NewServeMux()}
}

// HandleNative registers a handler on the native fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount registers m, replacing any module with the same prefix.
func (r *Router) Mount(m *Module) {
	for i, existing := range r.modules {
		if existing.prefix == m.prefix {
			r.modules[i] = m
			return
		}
	}
	r.modules = append(r.modules, m)
	sort.SliceStable(r.modules, func(i, j int) bool {
		return len(r.modules[i].prefix) > len(r.modules[j].prefix)
	})
}

// ServeHTTP dispatches to the matching module or falls back to the native mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	for _, m := range r.modules {
		if m.Matches(req.URL.Path) {
			m.ServeHTTP(w, req)
			return
		}
	}

	r.native.ServeHTTP(w, req)
}
