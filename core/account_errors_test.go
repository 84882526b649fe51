package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountError_KindHelpers(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"validation", NewValidationError("missing required email field"), IsValidation, http.StatusBadRequest},
		{"conflict", NewAccountError(ErrKeyEmailAlreadyExists, nil), IsConflict, http.StatusConflict},
		{"account not found", NewAccountError(ErrKeyAccountNotFound, nil), IsNotFound, http.StatusNotFound},
		{"token not found", NewAccountError(ErrKeyVerificationTokenNotFound, nil), IsNotFound, http.StatusNotFound},
		{"invalid login", NewAccountError(ErrKeyInvalidLogin, nil), IsUnauthorized, http.StatusUnauthorized},
		{"already verified", NewAccountError(ErrKeyAccountAlreadyVerified, nil), IsAlreadyVerified, http.StatusBadRequest},
		{"internal", NewAccountError(ErrKeyAvatarStorageFailed, cause), IsInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.status, AsAccountError(tt.err).HttpStatus())
		})
	}
}

func TestAccountError_WrappedStillMatches(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("register: %w", NewAccountError(ErrKeyDatabaseOperationFailed, cause))

	assert.True(t, IsAccountError(err))
	assert.True(t, IsInternal(err))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "A database operation failed.: connection reset", AsAccountError(err).Error())
}

func TestIsInternal_ForeignErrors(t *testing.T) {
	assert.True(t, IsInternal(errors.New("boom")))
	assert.False(t, IsInternal(nil))
	assert.False(t, IsInternal(NewValidationError("bad")))
}

func TestNewAccountError_CustomMessage(t *testing.T) {
	err := NewAccountError(ErrKeyValidation, nil, "\"email\" must be a valid email")
	assert.Equal(t, "\"email\" must be a valid email", err.Error())
}
