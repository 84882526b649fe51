package account

import (
	"encoding/json"
	"net/http"

	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal server error"

var errorStatusText = map[int]string{
	http.StatusNotFound:     "Bad request",
	http.StatusUnauthorized: "Unauthorized",
	http.StatusConflict:     "error",
	http.StatusBadRequest:   "Bad request",
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders an error from the account services. Anything outside the
// taxonomy, or mapped to a 5xx, is logged and answered with a generic message.
func (a *AccountAPI) writeError(w http.ResponseWriter, err error) {
	if core.IsInternal(err) {
		a.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Response{
			Status:  "error",
			Code:    http.StatusInternalServerError,
			Message: internalErrorMessage,
		})
		return
	}

	accountErr := core.AsAccountError(err)

	if core.IsValidation(err) {
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: accountErr.Message})
		return
	}

	status := accountErr.HttpStatus()
	resp := Response{
		Status:  errorStatusText[status],
		Code:    status,
		Message: accountErr.Message,
	}

	if core.IsConflict(err) {
		resp.Data = "Conflict"
	}

	writeJSON(w, status, resp)
}

func badRequest(message string) error {
	return core.NewValidationError(message)
}
