package core

import (
	"net/http"

	"github.com/gorilla/mux"
)

const HTTP_SERVICE = "http"

type HTTPService interface {
	// Init installs the shared middleware and mounts every registered API.
	Init() error
	Router() *mux.Router

	// Handler is the router wrapped in the shared middleware. It is nil before Init.
	Handler() http.Handler
	Serve() error

	Service
}
