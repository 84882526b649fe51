package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db"
	"go.uber.org/zap"
)

func newTestContext(t *testing.T) core.Context {
	t.Helper()

	ctx, err := core.NewContext(nil, core.NewLoggerFromZap(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(ctx.Cancel)

	return ctx
}

func newTestStore(t *testing.T) *AccountStoreDefault {
	t.Helper()

	gdb, err := db.Open(config.DatabaseConfig{
		Type:  "sqlite",
		File:  filepath.Join(t.TempDir(), "accounts.db"),
		Cache: config.CacheConfig{Mode: config.CacheModeMemory},
	}, "", core.NewLoggerFromZap(zap.NewNop()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return NewAccountStoreWithDB(gdb)
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []core.MailJob
	err  error
}

func (q *recordingQueue) ID() string {
	return core.MAIL_QUEUE_SERVICE
}

func (q *recordingQueue) Enqueue(_ context.Context, job core.MailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return q.err
	}

	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Jobs() []core.MailJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]core.MailJob(nil), q.jobs...)
}

func newTestVerification(t *testing.T, store core.AccountStore, queue core.MailQueue) *VerificationServiceDefault {
	t.Helper()

	return &VerificationServiceDefault{
		ctx:        newTestContext(t),
		store:      store,
		queue:      queue,
		logger:     zap.NewNop(),
		publicURL:  "https://accounts.example.com",
		verifyPath: "/api/users/verify",
	}
}
