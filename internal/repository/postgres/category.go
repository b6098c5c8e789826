package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type categoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `INSERT INTO categories (name, slug, description, icon, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	err := r.db.QueryRowxContext(ctx, query, c.Name, c.Slug, c.Description, c.Icon, c.IsActive, now).Scan(&c.ID)
	return mapError(err, "category")
}

func (r *categoryRepository) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	c := &domain.Category{}
	query := `SELECT id, name, slug, description, icon, is_active, created_at, updated_at FROM categories WHERE id = $1`
	if err := r.db.GetContext(ctx, c, query, id); err != nil {
		return nil, mapError(err, "category")
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	query := `SELECT id, name, slug, description, icon, is_active, created_at, updated_at FROM categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`
	categories := []domain.Category{}
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, c *domain.Category) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name=$1, slug=$2, description=$3, icon=$4, is_active=$5, updated_at=$6 WHERE id=$7`,
		c.Name, c.Slug, c.Description, c.Icon, c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		return mapError(err, "category")
	}
	return expectAffected(res, "category")
}

func (r *categoryRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "category")
	}
	return expectAffected(res, "category")
}
