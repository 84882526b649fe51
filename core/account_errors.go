package core

import (
	"errors"
	"fmt"
	"net/http"
)

type AccountErrorType string

const (
	// Input errors
	ErrKeyValidation AccountErrorType = "ErrValidation"

	// Account creation errors
	ErrKeyEmailAlreadyExists AccountErrorType = "ErrEmailAlreadyExists"

	// Account lookup errors
	ErrKeyAccountNotFound           AccountErrorType = "ErrAccountNotFound"
	ErrKeyVerificationTokenNotFound AccountErrorType = "ErrVerificationTokenNotFound"

	// Authentication errors
	ErrKeyInvalidLogin AccountErrorType = "ErrInvalidLogin"
	ErrKeyUnauthorized AccountErrorType = "ErrUnauthorized"

	// Verification errors
	ErrKeyAccountAlreadyVerified AccountErrorType = "ErrAccountAlreadyVerified"

	// Internal errors
	ErrKeyDatabaseOperationFailed AccountErrorType = "ErrDatabaseOperationFailed"
	ErrKeyHashingFailed           AccountErrorType = "ErrHashingFailed"
	ErrKeyTokenGenerationFailed   AccountErrorType = "ErrTokenGenerationFailed"
	ErrKeyAvatarStorageFailed     AccountErrorType = "ErrAvatarStorageFailed"
)

var defaultErrorMessages = map[AccountErrorType]string{
	ErrKeyValidation: "The request is invalid.",

	ErrKeyEmailAlreadyExists: "Email is already in use",

	ErrKeyAccountNotFound:           "Not found",
	ErrKeyVerificationTokenNotFound: "Not found",

	ErrKeyInvalidLogin: "Email or password is wrong or user is not verified",
	ErrKeyUnauthorized: "Not authorized",

	ErrKeyAccountAlreadyVerified: "Verification has already been passed",

	ErrKeyDatabaseOperationFailed: "A database operation failed.",
	ErrKeyHashingFailed:           "Failed to hash the password.",
	ErrKeyTokenGenerationFailed:   "Failed to generate a session token.",
	ErrKeyAvatarStorageFailed:     "Failed to store the avatar.",
}

var (
	ErrorCodeToHttpStatus = map[AccountErrorType]int{
		ErrKeyValidation: http.StatusBadRequest,

		ErrKeyEmailAlreadyExists: http.StatusConflict,

		ErrKeyAccountNotFound:           http.StatusNotFound,
		ErrKeyVerificationTokenNotFound: http.StatusNotFound,

		ErrKeyInvalidLogin: http.StatusUnauthorized,
		ErrKeyUnauthorized: http.StatusUnauthorized,

		ErrKeyAccountAlreadyVerified: http.StatusBadRequest,

		ErrKeyDatabaseOperationFailed: http.StatusInternalServerError,
		ErrKeyHashingFailed:           http.StatusInternalServerError,
		ErrKeyTokenGenerationFailed:   http.StatusInternalServerError,
		ErrKeyAvatarStorageFailed:     http.StatusInternalServerError,
	}
)

type AccountError struct {
	Key     AccountErrorType // A unique identifier for the error type
	Message string           // Human-readable error message
	Err     error            // Underlying error, if any
}

func (e *AccountError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

// HttpStatus maps the error key to a response status, defaulting to 500.
func (e *AccountError) HttpStatus() int {
	if status, ok := ErrorCodeToHttpStatus[e.Key]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsInternal reports whether the error must be hidden behind a generic message.
func (e *AccountError) IsInternal() bool {
	return e.HttpStatus() >= http.StatusInternalServerError
}

func NewAccountError(key AccountErrorType, err error, customMessage ...string) *AccountError {
	message, exists := defaultErrorMessages[key]
	if !exists {
		message = "An unknown error occurred"
	}
	if len(customMessage) > 0 {
		message = customMessage[0]
	}
	return &AccountError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

func NewValidationError(message string) *AccountError {
	return NewAccountError(ErrKeyValidation, nil, message)
}

func IsAccountError(err error) bool {
	return AsAccountError(err) != nil
}

func AsAccountError(err error) *AccountError {
	if err == nil {
		return nil
	}
	var e *AccountError
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func hasKey(err error, keys ...AccountErrorType) bool {
	e := AsAccountError(err)
	if e == nil {
		return false
	}
	for _, key := range keys {
		if e.Key == key {
			return true
		}
	}
	return false
}

func IsValidation(err error) bool {
	return hasKey(err, ErrKeyValidation)
}

func IsConflict(err error) bool {
	return hasKey(err, ErrKeyEmailAlreadyExists)
}

func IsNotFound(err error) bool {
	return hasKey(err, ErrKeyAccountNotFound, ErrKeyVerificationTokenNotFound)
}

func IsUnauthorized(err error) bool {
	return hasKey(err, ErrKeyInvalidLogin, ErrKeyUnauthorized)
}

func IsAlreadyVerified(err error) bool {
	return hasKey(err, ErrKeyAccountAlreadyVerified)
}

// IsInternal is true for account errors with a 5xx mapping and for any error outside the taxonomy.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}
	e := AsAccountError(err)
	if e == nil {
		return true
	}
	return e.IsInternal()
}
