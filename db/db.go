package db

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/go-gorm/caches/v4"
	"github.com/go-sql-driver/mysql"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
	"go.uber.org/zap"
	gormMySQL "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

func NewDatabase(ctx core.Context) (*gorm.DB, []core.ContextBuilderOption, error) {
	cfg := ctx.Config()

	db, err := Open(cfg.Config().Core.DB, cfg.ConfigDir(), ctx.Logger())
	if err != nil {
		return nil, nil, err
	}

	ctxOpts := []core.ContextBuilderOption{
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			return Migrate(db)
		}),
		core.ContextWithDB(db),
		core.ContextWithExitFunc(func(ctx core.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}),
	}

	return db, ctxOpts, nil
}

// Open connects to the configured database and installs the query cache.
// Relative sqlite paths are resolved against baseDir.
func Open(cfg config.DatabaseConfig, baseDir string, rootLogger *core.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	switch cfg.Type {
	case "mysql":
		db, err = openMySQLDatabase(cfg, rootLogger)
	case "sqlite":
		dbFile := cfg.File
		if !path.IsAbs(dbFile) && baseDir != "" {
			dbFile = path.Join(baseDir, dbFile)
		}

		db, err = openSQLiteDatabase(dbFile, rootLogger)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	if err != nil {
		return nil, err
	}

	cacher, err := getCacher(cfg.Cache, rootLogger)
	if err != nil {
		return nil, err
	}

	if cacher != nil {
		cache := &caches.Caches{Conf: &caches.Config{
			Easer:  true,
			Cacher: cacher,
		}}
		if err := db.Use(cache); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.GetModels()...)
}

func openMySQLDatabase(cfg config.DatabaseConfig, rootLogger *core.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.Charset)

	return gorm.Open(gormMySQL.Open(dsn), &gorm.Config{
		Logger:         newLogger(rootLogger.Logger, rootLogger.Level()),
		TranslateError: true,
	})
}

func openSQLiteDatabase(file string, rootLogger *core.Logger) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(file), &gorm.Config{
		Logger:         newLogger(rootLogger.Logger, rootLogger.Level()),
		TranslateError: true,
	})
}

func getCacher(cfg config.CacheConfig, logger *core.Logger) (caches.Cacher, error) {
	switch cfg.Mode {
	case config.CacheModeNone, "":
		return nil, nil
	case config.CacheModeMemory:
		return &memoryCacher{}, nil
	case config.CacheModeRedis:
		rcfg, ok := cfg.Options.(config.RedisConfig)
		if !ok {
			return nil, errors.New("invalid redis cache config")
		}
		logger.Debug("using redis query cache", zap.String("address", rcfg.Address))
		return newRedisCacher(rcfg.Client()), nil
	}

	return nil, fmt.Errorf("invalid cache mode: %s", cfg.Mode)
}

func RetryOnLock(db *gorm.DB, operation func(*gorm.DB) *gorm.DB) error {
	initialBackoff := 100 * time.Millisecond
	maxBackoff := 10 * time.Second
	maxAttempts := 8
	attempt := 0

	for {
		result := operation(db)
		if result.Error == nil {
			return nil
		}

		if !isLockError(result.Error) || attempt >= maxAttempts {
			return result.Error
		}

		backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
		jitter := rand.Float64() * float64(initialBackoff)
		sleepDuration := time.Duration(math.Min(backoff+jitter, float64(maxBackoff)))
		time.Sleep(sleepDuration)
		attempt++
	}
}

// isLockError checks if the given error is a database lock error
func isLockError(err error) bool {
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "deadlock") ||
		strings.Contains(errMsg, "lock wait timeout") ||
		strings.Contains(errMsg, "database is locked") ||
		strings.Contains(errMsg, "too many connections")
}

// IsDuplicateError reports a unique constraint violation on either backend.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
