package app

import (
	"fmt"
	"regexp"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/errors"
)

// isPath ensures a valid message path, eg. "escrow/initialize"
var isPath = regexp.MustCompile(`^[a-z]+/[a-z_]+$`).MatchString

// Router maps message paths to handlers. It implements both the
// Registry interface used during setup and the Handler interface used
// for dispatch.
type Router struct {
	handlers map[string]ledger.Handler
}

var _ ledger.Registry = (*Router)(nil)
var _ ledger.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]ledger.Handler),
	}
}

// Handle adds a route. Panics on invalid path or duplicate
// registration, as this is a setup time programming error.
func (r *Router) Handle(path string, h ledger.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.handlers[path]; ok {
		panic(fmt.Sprintf("double registration of path: %q", path))
	}
	r.handlers[path] = h
}

// handler returns the registered Handler, or a handler that fails
// every call when the path is unknown.
func (r *Router) handler(tx ledger.Tx) ledger.Handler {
	path := ledger.GetPath(tx)
	if h, ok := r.handlers[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Check dispatches to the proper handler based on the message path
func (r *Router) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	return r.handler(tx).Check(ctx, db, tx)
}

// Deliver dispatches to the proper handler based on the message path
func (r *Router) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	return r.handler(tx).Deliver(ctx, db, tx)
}

// notFoundHandler always returns ErrNotFound
type notFoundHandler string

func (n notFoundHandler) Check(ledger.Context, ledger.KVStore, ledger.Tx) (*ledger.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for %q", string(n))
}

func (n notFoundHandler) Deliver(ledger.Context, ledger.KVStore, ledger.Tx) (*ledger.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for %q", string(n))
}
