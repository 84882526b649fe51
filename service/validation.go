package service

import (
	"errors"
	"path/filepath"
	"strings"

	emailverifier "github.com/AfterShip/email-verifier"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

var AvatarExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}

var (
	errEmailInvalid    = errors.New("email must be a valid email address")
	errBodyNotAllowed  = errors.New("logout does not accept a request body")
	errFilenameInvalid = errors.New("avatar must be a plain file name")
	errExtensionDenied = errors.New("avatar file type is not allowed")
)

func requiredField(name string) validation.Rule {
	return validation.Required.Error("missing required field " + name)
}

var _ core.ValidationService = (*ValidationServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.VALIDATION_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewValidationService()
		},
	})
}

type ValidationServiceDefault struct {
	verifier *emailverifier.Verifier
}

func NewValidationService() (*ValidationServiceDefault, []core.ContextBuilderOption, error) {
	return &ValidationServiceDefault{verifier: getEmailVerifier()}, nil, nil
}

func getEmailVerifier() *emailverifier.Verifier {
	verifier := emailverifier.NewVerifier()

	verifier.DisableSMTPCheck()
	verifier.DisableGravatarCheck()
	verifier.DisableDomainSuggest()
	verifier.DisableAutoUpdateDisposable()

	return verifier
}

func (v ValidationServiceDefault) ID() string {
	return core.VALIDATION_SERVICE
}

func (v ValidationServiceDefault) ValidateRegister(email string, password string) error {
	return firstViolation(
		validation.Validate(email, requiredField("email"), validation.By(v.emailSyntax)),
		validation.Validate(password, requiredField("password"),
			validation.RuneLength(minPasswordLength, maxPasswordLength).Error("password must be between 6 and 72 characters")),
	)
}

func (v ValidationServiceDefault) ValidateReverify(email string) error {
	return firstViolation(
		validation.Validate(email, requiredField("email"), validation.By(v.emailSyntax)),
	)
}

func (v ValidationServiceDefault) ValidateLogin(email string, password string) error {
	return firstViolation(
		validation.Validate(email, requiredField("email"), validation.By(v.emailSyntax)),
		validation.Validate(password, requiredField("password")),
	)
}

func (v ValidationServiceDefault) ValidateLogout(body map[string]any) error {
	if len(body) > 0 {
		return core.NewValidationError(errBodyNotAllowed.Error())
	}
	return nil
}

func (v ValidationServiceDefault) ValidateSubscription(tier string) error {
	allowed := make([]any, 0, len(models.Subscriptions))
	for _, s := range models.Subscriptions {
		allowed = append(allowed, string(s))
	}

	return firstViolation(
		validation.Validate(tier, requiredField("subscription"),
			validation.In(allowed...).Error("subscription must be one of: starter, pro, business")),
	)
}

func (v ValidationServiceDefault) ValidateAvatarFilename(name string) error {
	return firstViolation(
		validation.Validate(name, requiredField("avatar"), validation.By(plainFilename), validation.By(allowedExtension)),
	)
}

func (v ValidationServiceDefault) emailSyntax(value any) error {
	email, _ := value.(string)
	if email == "" {
		return nil
	}

	// Only the syntax is checked. Verify would also resolve MX records.
	if !v.verifier.ParseAddress(email).Valid {
		return errEmailInvalid
	}

	return nil
}

func plainFilename(value any) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}

	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || strings.HasPrefix(name, ".") {
		return errFilenameInvalid
	}

	return nil
}

func allowedExtension(value any) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AvatarExtensions {
		if ext == allowed {
			return nil
		}
	}

	return errExtensionDenied
}

// firstViolation reports the first failing field, in argument order, using the
// rule's own message.
func firstViolation(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return core.NewAccountError(core.ErrKeyValidation, err, err.Error())
		}
	}

	return nil
}
