package service

import (
	"context"
	"errors"

	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db"
	"go.lumeweb.com/accounts/db/models"
	"gorm.io/gorm"
)

var _ core.AccountStore = (*AccountStoreDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.ACCOUNT_STORE_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewAccountStore()
		},
	})
}

type AccountStoreDefault struct {
	db *gorm.DB
}

func NewAccountStore() (*AccountStoreDefault, []core.ContextBuilderOption, error) {
	store := &AccountStoreDefault{}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			store.db = ctx.DB()
			return nil
		}),
	)

	return store, opts, nil
}

func NewAccountStoreWithDB(db *gorm.DB) *AccountStoreDefault {
	return &AccountStoreDefault{db: db}
}

func (s AccountStoreDefault) ID() string {
	return core.ACCOUNT_STORE_SERVICE
}

func (s AccountStoreDefault) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s AccountStoreDefault) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s AccountStoreDefault) FindByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	account, err := s.findOne(ctx, "verification_token = ?", token)
	if core.IsNotFound(err) {
		return nil, core.NewAccountError(core.ErrKeyVerificationTokenNotFound, nil)
	}

	return account, err
}

func (s AccountStoreDefault) FindByToken(ctx context.Context, token string) (*models.Account, error) {
	return s.findOne(ctx, "token = ?", token)
}

func (s AccountStoreDefault) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	if arg == "" {
		return nil, core.NewAccountError(core.ErrKeyAccountNotFound, nil)
	}

	var account models.Account

	if err := db.RetryOnLock(s.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where(query, arg).First(&account)
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.NewAccountError(core.ErrKeyAccountNotFound, nil)
		}

		return nil, core.NewAccountError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return &account, nil
}

func (s AccountStoreDefault) Insert(ctx context.Context, account *models.Account) error {
	if err := db.RetryOnLock(s.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Create(account)
	}); err != nil {
		if db.IsDuplicateError(err) {
			return core.NewAccountError(core.ErrKeyEmailAlreadyExists, nil)
		}

		return core.NewAccountError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return nil
}

func (s AccountStoreDefault) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 || id == "" {
		return nil
	}

	if err := db.RetryOnLock(s.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Account{ID: id}).Updates(fields)
	}); err != nil {
		if errors.Is(err, models.ErrEmailImmutable) {
			return core.NewValidationError(err.Error())
		}

		return core.NewAccountError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return nil
}

func (s AccountStoreDefault) SetVerificationToken(ctx context.Context, id string, token string) error {
	if id == "" {
		return core.NewAccountError(core.ErrKeyAccountNotFound, nil)
	}

	rows, err := s.updateWhere(ctx, map[string]any{"verification_token": token}, "id = ? AND verify = ?", id, false)
	if err != nil {
		return err
	}

	if rows == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return core.NewAccountError(core.ErrKeyAccountAlreadyVerified, nil)
	}

	return nil
}

func (s AccountStoreDefault) ConsumeVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	account, err := s.FindByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}

	rows, err := s.updateWhere(ctx, map[string]any{
		"verify":             true,
		"verification_token": nil,
	}, "id = ? AND verification_token = ?", account.ID, token)
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		return nil, core.NewAccountError(core.ErrKeyVerificationTokenNotFound, nil)
	}

	account.Verify = true
	account.VerificationToken = nil

	return account, nil
}

// updateWhere applies fields to the rows matching query and reports how many changed.
func (s AccountStoreDefault) updateWhere(ctx context.Context, fields map[string]any, query string, args ...any) (int64, error) {
	var rowsAffected int64

	if err := db.RetryOnLock(s.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		tx := db.Model(&models.Account{}).Where(query, args...).Updates(fields)
		rowsAffected = tx.RowsAffected
		return tx
	}); err != nil {
		return 0, core.NewAccountError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return rowsAffected, nil
}

func (s AccountStoreDefault) DeleteByID(ctx context.Context, id string) error {
	if id == "" {
		return core.NewAccountError(core.ErrKeyAccountNotFound, nil)
	}

	var rowsAffected int64

	if err := db.RetryOnLock(s.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		tx := db.Delete(&models.Account{ID: id})
		rowsAffected = tx.RowsAffected
		return tx
	}); err != nil {
		return core.NewAccountError(core.ErrKeyDatabaseOperationFailed, err)
	}

	if rowsAffected == 0 {
		return core.NewAccountError(core.ErrKeyAccountNotFound, nil)
	}

	return nil
}

func (s AccountStoreDefault) ListAll(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account

	if err := db.RetryOnLock(s.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at asc").Order("id asc").Find(&accounts)
	}); err != nil {
		return nil, core.NewAccountError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return accounts, nil
}
