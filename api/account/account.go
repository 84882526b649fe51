package account

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/middleware"
	"go.uber.org/zap"
)

var _ core.API = (*AccountAPI)(nil)

func init() {
	core.RegisterAPI("account", &AccountAPI{})
}

type AccountAPI struct {
	accounts   core.AccountService
	avatars    core.AvatarService
	validation core.ValidationService
	logger     *zap.Logger
	uploadDir  string
	maxUpload  int64
}

func (a *AccountAPI) Name() string {
	return "account"
}

func (a *AccountAPI) Configure(ctx core.Context, router *mux.Router) error {
	cfg := ctx.Config().Config().Core.Storage.Avatar

	a.accounts = core.GetService[core.AccountService](ctx, core.ACCOUNT_SERVICE)
	a.avatars = core.GetService[core.AvatarService](ctx, core.AVATAR_SERVICE)
	a.validation = core.GetService[core.ValidationService](ctx, core.VALIDATION_SERVICE)
	a.logger = ctx.Logger().Named(a.Name())
	a.uploadDir = cfg.UploadDir
	a.maxUpload = int64(cfg.MaxUploadSize)

	a.routes(router)

	return nil
}

func (a *AccountAPI) routes(router *mux.Router) {
	auth := middleware.AuthMiddleware(middleware.AuthMiddlewareOptions{
		Accounts: a.accounts,
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			a.writeError(w, err)
		},
	})

	withAuth := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	users := router.PathPrefix("/api/users").Subrouter()

	// Fixed paths go ahead of /{id} so they are never taken for an account id.
	users.HandleFunc("/signup", a.register).Methods(http.MethodPost)
	users.HandleFunc("/login", a.login).Methods(http.MethodPost)
	users.Handle("/logout", withAuth(a.logout)).Methods(http.MethodPost)
	users.HandleFunc("/verify/{verificationToken}", a.verify).Methods(http.MethodGet)
	users.HandleFunc("/verify", a.reverify).Methods(http.MethodPost)
	users.Handle("/current", withAuth(a.current)).Methods(http.MethodGet)
	users.Handle("/subscription", withAuth(a.updateSubscription)).Methods(http.MethodPatch)
	users.Handle("/avatars", withAuth(a.updateAvatar)).Methods(http.MethodPatch)
	users.Handle("/{id}", withAuth(a.getByID)).Methods(http.MethodGet)
	users.Handle("", withAuth(a.list)).Methods(http.MethodGet)
	users.Handle("", withAuth(a.update)).Methods(http.MethodPatch)
	users.Handle("", withAuth(a.remove)).Methods(http.MethodDelete)

	router.HandleFunc("/avatars/{name}", a.serveAvatar).Methods(http.MethodGet, http.MethodHead)
}
