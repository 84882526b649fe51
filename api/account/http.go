package account

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
	"go.lumeweb.com/accounts/middleware"
	"go.uber.org/zap"
)

const (
	defaultPage     = 1
	defaultLimit    = 20
	multipartMemory = 32 << 10
	avatarFormField = "avatar"
)

var errMalformedBody = badRequest("Malformed JSON body")

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any, strict bool) error {
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errMalformedBody
	}

	return nil
}

func (a *AccountAPI) register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeBody(r, &req, false); err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.validation.ValidateRegister(req.Email, req.Password); err != nil {
		a.writeError(w, err)
		return
	}

	user, err := a.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{
		Status: "success",
		Code:   http.StatusCreated,
		Data: RegisterData{
			User:    user,
			Message: "Registration successful",
		},
	})
}

func (a *AccountAPI) login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeBody(r, &req, false); err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.validation.ValidateLogin(req.Email, req.Password); err != nil {
		a.writeError(w, err)
		return
	}

	token, user, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status: "Success",
		Code:   http.StatusOK,
		Data: LoginData{
			Token: token,
			User: LoginUser{
				ID:           user.ID,
				Email:        user.Email,
				Subscription: user.Subscription,
			},
		},
	})
}

func (a *AccountAPI) logout(w http.ResponseWriter, r *http.Request) {
	body := make(map[string]any)
	if err := decodeBody(r, &body, false); err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.validation.ValidateLogout(body); err != nil {
		a.writeError(w, err)
		return
	}

	id, err := middleware.GetAccountIDFromContext(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.accounts.Logout(r.Context(), id); err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status:  "No content",
		Code:    http.StatusNoContent,
		Message: "Logout successful. Token removed",
	})
}

func (a *AccountAPI) verify(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["verificationToken"]

	if _, err := a.accounts.Verify(r.Context(), token); err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status:  "success",
		Code:    http.StatusOK,
		Message: "Verification successful",
	})
}

func (a *AccountAPI) reverify(w http.ResponseWriter, r *http.Request) {
	var req ReverifyRequest
	if err := decodeBody(r, &req, false); err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.validation.ValidateReverify(req.Email); err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status:  "Success",
		Code:    http.StatusOK,
		Message: "Verification email sent",
	})
}

func (a *AccountAPI) list(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)

	all, err := a.accounts.ListAll(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	users := a.accounts.ListPage(all, (page-1)*limit, page*limit)
	if users == nil {
		users = []core.AccountSummary{}
	}

	writeJSON(w, http.StatusOK, Response{
		Status: "success",
		Code:   http.StatusOK,
		Data:   UsersData{Users: users},
	})
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 1 {
		return def
	}

	return value
}

func (a *AccountAPI) current(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.GetAccountFromContext(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status: "success",
		Code:   http.StatusOK,
		Data:   UserData{User: user},
	})
}

func (a *AccountAPI) getByID(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.GetAccountIDFromContext(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	user, err := a.accounts.GetOne(r.Context(), mux.Vars(r)["id"], requesterID)
	if err != nil {
		if core.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, Response{
				Status:  "not-found",
				Code:    http.StatusNotFound,
				Message: core.AsAccountError(err).Message,
			})
			return
		}
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status: "success",
		Code:   http.StatusOK,
		Data:   UserData{User: user},
	})
}

func (a *AccountAPI) update(w http.ResponseWriter, r *http.Request) {
	var update core.ProfileUpdate
	if err := decodeBody(r, &update, true); err != nil {
		a.writeError(w, err)
		return
	}

	id, err := middleware.GetAccountIDFromContext(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	user, err := a.accounts.UpdateProfile(r.Context(), id, update)
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status: "Success",
		Code:   http.StatusOK,
		Data:   UserData{User: user},
	})
}

func (a *AccountAPI) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if err := decodeBody(r, &req, false); err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.validation.ValidateSubscription(req.Subscription); err != nil {
		a.writeError(w, err)
		return
	}

	id, err := middleware.GetAccountIDFromContext(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	user, err := a.accounts.UpdateSubscription(r.Context(), id, models.Subscription(req.Subscription))
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status: "Success",
		Code:   http.StatusOK,
		Data:   UserData{User: user},
	})
}

func (a *AccountAPI) updateAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.GetAccountIDFromContext(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.writeError(w, badRequest("Avatar exceeds the maximum upload size"))
			return
		}
		a.writeError(w, badRequest("Expected a multipart form"))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	upload, err := a.spoolUpload(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	url, err := a.accounts.UpdateAvatar(r.Context(), id, upload)
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status: "Success",
		Code:   http.StatusOK,
		Data:   AvatarData{AvatarURL: url},
	})
}

// spoolUpload copies the multipart avatar into the upload directory. The avatar
// service owns the temporary file from then on.
func (a *AccountAPI) spoolUpload(r *http.Request) (core.AvatarUpload, error) {
	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		return core.AvatarUpload{}, badRequest("missing required file avatar")
	}
	defer file.Close()

	tmp, err := os.CreateTemp(a.uploadDir, "avatar-*")
	if err != nil {
		return core.AvatarUpload{}, err
	}

	_, err = io.Copy(tmp, file)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return core.AvatarUpload{}, err
	}

	return core.AvatarUpload{TempPath: tmp.Name(), OriginalName: header.Filename}, nil
}

func (a *AccountAPI) remove(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.GetAccountIDFromContext(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.accounts.Remove(r.Context(), id); err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Status:  "Success",
		Code:    http.StatusOK,
		Message: "User removed",
		Data:    RemovedData{User: id},
	})
}

func (a *AccountAPI) serveAvatar(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	file, err := a.avatars.Open(r.Context(), name)
	if err != nil {
		if core.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		a.writeError(w, err)
		return
	}
	defer file.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, file); err != nil {
		a.logger.Debug("avatar stream interrupted", zap.String("name", name), zap.Error(err))
	}
}
