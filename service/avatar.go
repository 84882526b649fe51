package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/moby/locker"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/event"
	"go.uber.org/zap"
)

const avatarSweepTask = "avatar.sweep_uploads"

var _ core.AvatarService = (*AvatarServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.AVATAR_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewAvatarService()
		},
		Depends: []string{core.ACCOUNT_STORE_SERVICE, core.VALIDATION_SERVICE, core.CRON_SERVICE},
	})
}

type AvatarServiceDefault struct {
	store      core.AvatarStore
	accounts   core.AccountStore
	validation core.ValidationService
	logger     *zap.Logger
	locks      *locker.Locker
	publicURL  string
	size       int
	uploadDir  string
	staleAfter time.Duration
}

func NewAvatarService() (*AvatarServiceDefault, []core.ContextBuilderOption, error) {
	avatar := &AvatarServiceDefault{locks: locker.New()}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			cfg := ctx.Config().Config().Core
			avatar.accounts = core.GetService[core.AccountStore](ctx, core.ACCOUNT_STORE_SERVICE)
			avatar.validation = core.GetService[core.ValidationService](ctx, core.VALIDATION_SERVICE)
			avatar.logger = ctx.ServiceLogger(avatar)
			avatar.publicURL = cfg.PublicURL()
			avatar.size = cfg.Storage.Avatar.Size
			avatar.uploadDir = cfg.Storage.Avatar.UploadDir
			avatar.staleAfter = cfg.Storage.Avatar.StaleUpload

			store, err := newAvatarStore(ctx, cfg.Storage.Avatar, avatar.logger)
			if err != nil {
				return err
			}
			avatar.store = store

			if err := os.MkdirAll(avatar.uploadDir, 0o755); err != nil {
				return fmt.Errorf("mkdir upload dir: %w", err)
			}

			if cfg.Account.PurgeAvatarOnRemove {
				event.Listen[*event.AccountRemovedEvent](ctx, event.EVENT_ACCOUNT_REMOVED, func(evt *event.AccountRemovedEvent) error {
					return avatar.Purge(ctx, evt.AccountID())
				})
			}

			cron := core.GetService[core.CronService](ctx, core.CRON_SERVICE)
			return cron.RegisterTask(avatarSweepTask, gocron.DurationJob(cfg.Storage.Avatar.SweepInterval), func(ctx core.Context) error {
				_, err := avatar.SweepUploads(ctx)
				return err
			})
		}),
	)

	return avatar, opts, nil
}

func newAvatarStore(ctx context.Context, cfg config.AvatarStorageConfig, logger *zap.Logger) (core.AvatarStore, error) {
	switch cfg.Backend {
	case config.AvatarBackendS3:
		return NewS3AvatarStore(ctx, cfg.S3, logger.Named("s3"))
	default:
		return NewFileSystemAvatarStore(cfg.Dir, logger.Named("fs"))
	}
}

func (a *AvatarServiceDefault) ID() string {
	return core.AVATAR_SERVICE
}

func (a *AvatarServiceDefault) Update(ctx context.Context, accountID string, upload core.AvatarUpload) (publicURL string, err error) {
	defer func() {
		if rmErr := os.Remove(upload.TempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			a.logger.Error("failed to remove temporary upload", zap.String("path", upload.TempPath), zap.Error(rmErr))
		}
	}()

	if err := a.validation.ValidateAvatarFilename(upload.OriginalName); err != nil {
		return "", err
	}

	img, err := a.decodeUpload(upload.TempPath)
	if err != nil {
		return "", core.NewAccountError(core.ErrKeyValidation, err, "Uploaded file is not a supported image")
	}

	name := accountID + "_" + upload.OriginalName

	data, err := encodeImage(resizeImage(img, a.size), name)
	if err != nil {
		return "", core.NewAccountError(core.ErrKeyValidation, err, "Uploaded file is not a supported image")
	}

	a.locks.Lock(accountID)
	defer func() {
		_ = a.locks.Unlock(accountID)
	}()

	if err := a.deleteAll(ctx, accountID); err != nil {
		return "", core.NewAccountError(core.ErrKeyAvatarStorageFailed, err)
	}

	if err := a.store.Write(ctx, name, bytes.NewReader(data)); err != nil {
		return "", core.NewAccountError(core.ErrKeyAvatarStorageFailed, err)
	}

	publicURL = a.URL(name)

	if err := a.accounts.UpdateFields(ctx, accountID, map[string]any{"avatar_url": publicURL}); err != nil {
		return "", err
	}

	return publicURL, nil
}

func (a *AvatarServiceDefault) decodeUpload(path string) (img image.Image, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return decodeImage(file)
}

func (a *AvatarServiceDefault) Purge(ctx context.Context, accountID string) error {
	a.locks.Lock(accountID)
	defer func() {
		_ = a.locks.Unlock(accountID)
	}()

	if err := a.deleteAll(ctx, accountID); err != nil {
		return core.NewAccountError(core.ErrKeyAvatarStorageFailed, err)
	}

	return nil
}

// deleteAll removes every file named after the account. The caller holds the account lock.
func (a *AvatarServiceDefault) deleteAll(ctx context.Context, accountID string) error {
	if accountID == "" {
		return errors.New("empty account id")
	}

	names, err := a.store.List(ctx, accountID+"_")
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := a.store.Delete(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

func (a *AvatarServiceDefault) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := a.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrInvalidAvatarName) {
			return nil, core.NewAccountError(core.ErrKeyAccountNotFound, err)
		}
		return nil, core.NewAccountError(core.ErrKeyAvatarStorageFailed, err)
	}

	return r, nil
}

func (a *AvatarServiceDefault) URL(name string) string {
	return fmt.Sprintf("%s/avatars/%s", a.publicURL, url.PathEscape(name))
}

// SweepUploads removes temporary uploads older than the configured age.
// These are left behind when a request dies before reaching Update.
func (a *AvatarServiceDefault) SweepUploads(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(a.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := time.Now().Add(-a.staleAfter)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(a.uploadDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			a.logger.Warn("failed to remove stale upload", zap.String("name", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		a.logger.Info("removed stale uploads", zap.Int("count", removed))
	}

	return removed, nil
}
