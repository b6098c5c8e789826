package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type systemConfigRepository struct {
	db *sqlx.DB
}

func NewSystemConfigRepository(db *sqlx.DB) repository.SystemConfigRepository {
	return &systemConfigRepository{db: db}
}

func (r *systemConfigRepository) Get(ctx context.Context, key string) (*domain.SystemConfig, error) {
	c := &domain.SystemConfig{}
	if err := r.db.GetContext(ctx, c,
		`SELECT key, value, description, updated_by, updated_at FROM system_config WHERE key = $1`, key); err != nil {
		return nil, mapError(err, "setting "+key)
	}
	return c, nil
}

func (r *systemConfigRepository) List(ctx context.Context) ([]domain.SystemConfig, error) {
	items := []domain.SystemConfig{}
	if err := r.db.SelectContext(ctx, &items,
		`SELECT key, value, description, updated_by, updated_at FROM system_config ORDER BY key`); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *systemConfigRepository) Set(ctx context.Context, c *domain.SystemConfig) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO system_config (key, value, description, updated_by, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value,
		 description = CASE WHEN EXCLUDED.description = '' THEN system_config.description ELSE EXCLUDED.description END,
		 updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`,
		c.Key, c.Value, c.Description, c.UpdatedBy, c.UpdatedAt)
	return err
}

type bankInfoRepository struct {
	db *sqlx.DB
}

func NewBankInfoRepository(db *sqlx.DB) repository.BankInfoRepository {
	return &bankInfoRepository{db: db}
}

const bankInfoColumns = `id, bank_name, account_holder, account_number, iban, instructions, is_active, created_at, updated_at`

func (r *bankInfoRepository) Create(ctx context.Context, b *domain.BankInfo) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO bank_info (bank_name, account_holder, account_number, iban, instructions, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		b.BankName, b.AccountHolder, b.AccountNumber, b.IBAN, b.Instructions, b.IsActive, now).Scan(&b.ID)
}

func (r *bankInfoRepository) GetByID(ctx context.Context, id int32) (*domain.BankInfo, error) {
	b := &domain.BankInfo{}
	if err := r.db.GetContext(ctx, b, `SELECT `+bankInfoColumns+` FROM bank_info WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "bank account")
	}
	return b, nil
}

func (r *bankInfoRepository) List(ctx context.Context, activeOnly bool) ([]domain.BankInfo, error) {
	query := `SELECT ` + bankInfoColumns + ` FROM bank_info`
	if activeOnly {
		query += ` WHERE is_active`
	}
	items := []domain.BankInfo{}
	if err := r.db.SelectContext(ctx, &items, query+` ORDER BY id`); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *bankInfoRepository) Update(ctx context.Context, b *domain.BankInfo) error {
	b.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_info SET bank_name=$1, account_holder=$2, account_number=$3, iban=$4, instructions=$5, is_active=$6, updated_at=$7
		 WHERE id=$8`,
		b.BankName, b.AccountHolder, b.AccountNumber, b.IBAN, b.Instructions, b.IsActive, b.UpdatedAt, b.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, "bank account")
}

func (r *bankInfoRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bank_info WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "bank account")
}

type contentRepository struct {
	db *sqlx.DB
}

func NewContentRepository(db *sqlx.DB) repository.ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `id, slug, title, body, is_published, updated_by, created_at, updated_at`

func (r *contentRepository) GetBySlug(ctx context.Context, slug string) (*domain.Content, error) {
	c := &domain.Content{}
	if err := r.db.GetContext(ctx, c, `SELECT `+contentColumns+` FROM content WHERE slug = $1`, slug); err != nil {
		return nil, mapError(err, "content")
	}
	return c, nil
}

func (r *contentRepository) List(ctx context.Context, includeDrafts bool) ([]domain.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content`
	if !includeDrafts {
		query += ` WHERE is_published`
	}
	items := []domain.Content{}
	if err := r.db.SelectContext(ctx, &items, query+` ORDER BY slug`); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentRepository) Upsert(ctx context.Context, c *domain.Content) error {
	now := time.Now().UTC()
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO content (slug, title, body, is_published, updated_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body,
		 is_published = EXCLUDED.is_published, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, updated_at`,
		c.Slug, c.Title, c.Body, c.IsPublished, c.UpdatedBy, now).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *contentRepository) Delete(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	return expectAffected(res, "content")
}
