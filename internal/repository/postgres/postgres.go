package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sqlx.DB
	repository.UserRepository
	repository.EquipmentRepository
	repository.EquipmentEditRepository
	repository.RentalRepository
	repository.CategoryRepository
	repository.AddressRepository
	repository.ChatRepository
	repository.NotificationRepository
	repository.FavoriteRepository
	repository.CartRepository
	repository.ReviewRepository
	repository.ReportRepository
	repository.UploadRepository
	repository.SystemConfigRepository
	repository.BankInfoRepository
	repository.ContentRepository
	repository.StatsRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:                      db,
		UserRepository:          NewUserRepository(db),
		EquipmentRepository:     NewEquipmentRepository(db),
		EquipmentEditRepository: NewEquipmentEditRepository(db),
		RentalRepository:        NewRentalRepository(db),
		CategoryRepository:      NewCategoryRepository(db),
		AddressRepository:       NewAddressRepository(db),
		ChatRepository:          NewChatRepository(db),
		NotificationRepository:  NewNotificationRepository(db),
		FavoriteRepository:      NewFavoriteRepository(db),
		CartRepository:          NewCartRepository(db),
		ReviewRepository:        NewReviewRepository(db),
		ReportRepository:        NewReportRepository(db),
		UploadRepository:        NewUploadRepository(db),
		SystemConfigRepository:  NewSystemConfigRepository(db),
		BankInfoRepository:      NewBankInfoRepository(db),
		ContentRepository:       NewContentRepository(db),
		StatsRepository:         NewStatsRepository(db),
	}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	version, dirty, _ := m.Version()
	logger.Info("Database migrations applied", "version", version, "dirty", dirty)
	return nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// mapError turns driver errors into domain errors. what names the record for
// the message.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("%s not found", what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return domain.Conflict("%s already exists", what)
		case "23503":
			return domain.BadRequest("%s references a record that does not exist", what)
		case "23514":
			return domain.BadRequest("invalid %s", what)
		}
	}
	return err
}

// expectAffected reports a not-found error when an update touched no row.
func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("%s not found", what)
	}
	return nil
}

// pageClause returns the LIMIT/OFFSET suffix for a 1-based page. A size <= 0
// disables paging.
func pageClause(page, pageSize int32) string {
	if pageSize <= 0 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	offset := (int64(page) - 1) * int64(pageSize)
	return fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, offset)
}

// whereBuilder accumulates AND-ed conditions. Every "?" in a condition is
// bound to the single argument passed with it.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
