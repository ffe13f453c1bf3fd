// Package middleware holds the HTTP middleware applied around each module.
package middleware

import (
	"net/http"
	"slices"
)

// Func wraps a handler with additional behavior.
type Func = func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The first added runs outermost.
// The zero value is ready to use.
type Stack struct {
	fns []Func
}

func (s *Stack) Use(fn Func) {
	s.fns = append(s.fns, fn)
}

func (s *Stack) Len() int {
	return len(s.fns)
}

// Apply wraps handler so a request passes through the stack in the order
// the middleware was added.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for _, fn := range slices.Backward(s.fns) {
		handler = fn(handler)
	}
	return handler
}
