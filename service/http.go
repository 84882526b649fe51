package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var _ core.HTTPService = (*HTTPServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.HTTP_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewHTTPService()
		},
		Depends: []string{core.ACCOUNT_SERVICE, core.AVATAR_SERVICE, core.VALIDATION_SERVICE},
	})
}

type HTTPServiceDefault struct {
	ctx    core.Context
	logger *zap.Logger
	router *mux.Router
	srv    *http.Server
}

var _ handlers.RecoveryHandlerLogger = (*recoverLogger)(nil)

type recoverLogger struct {
	logger *zap.Logger
}

func (r *recoverLogger) Println(v ...interface{}) {
	r.logger.Error("Recovered from panic", zap.Any("panic", v))
}

func NewHTTPService() (*HTTPServiceDefault, []core.ContextBuilderOption, error) {
	_http := &HTTPServiceDefault{
		router: mux.NewRouter(),
	}

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
	}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			_http.ctx = ctx
			_http.logger = ctx.ServiceLogger(_http)
			return nil
		}),
		core.ContextWithExitFunc(func(ctx core.Context) error {
			// The app context is already cancelled at this point.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}),
	)

	_http.srv = srv

	return _http, opts, nil
}

func (h *HTTPServiceDefault) ID() string {
	return core.HTTP_SERVICE
}

func (h *HTTPServiceDefault) Router() *mux.Router {
	return h.router
}

func (h *HTTPServiceDefault) Handler() http.Handler {
	return h.srv.Handler
}

func (h *HTTPServiceDefault) Init() error {
	h.srv.Addr = ":" + strconv.FormatUint(uint64(h.ctx.Config().Config().Core.Port), 10)

	for _, api := range core.GetAPIs() {
		if err := api.Configure(h.ctx, h.router); err != nil {
			return err
		}
		h.logger.Debug("api configured", zap.String("api", api.Name()))
	}

	var handler http.Handler = h.router
	handler = middleware.LoggingMiddleware(h.logger)(handler)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(&recoverLogger{h.logger}))(handler)
	handler = middleware.CorsMiddleware(nil)(handler)

	h.srv.Handler = handler

	return nil
}

// Serve blocks until the server is shut down.
func (h *HTTPServiceDefault) Serve() error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}

	h.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
