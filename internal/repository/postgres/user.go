package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

const userColumns = `id, email, password_hash, full_name, phone, user_type, role, account_status,
	is_company, company_name, company_tax_id, company_documents, profile_picture, bi_document, bi_validated,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason, created_at, updated_at, deleted_at`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (email, password_hash, full_name, phone, user_type, role, account_status,
	          is_company, company_name, company_tax_id, company_documents, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12) RETURNING id`
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	err := r.db.QueryRowxContext(ctx, query, u.Email, u.PasswordHash, u.FullName, u.Phone, u.UserType, u.Role,
		u.AccountStatus, u.IsCompany, u.CompanyName, u.CompanyTaxID, u.CompanyDocuments, now).Scan(&u.ID)
	return mapError(err, "user")
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, u, query, id); err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	if err := r.db.GetContext(ctx, u, query, email); err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET email=$1, password_hash=$2, full_name=$3, phone=$4, role=$5, is_company=$6,
	          company_name=$7, company_tax_id=$8, company_documents=$9, profile_picture=$10, bi_document=$11,
	          bi_validated=$12, updated_at=$13 WHERE id=$14 AND deleted_at IS NULL`
	u.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role, u.IsCompany,
		u.CompanyName, u.CompanyTaxID, u.CompanyDocuments, u.ProfilePicture, u.BIDocument, u.BIValidated,
		u.UpdatedAt, u.ID)
	if err != nil {
		return mapError(err, "user")
	}
	return expectAffected(res, "user")
}

func (r *userRepository) DecideAccountStatus(ctx context.Context, u *domain.User) error {
	logger.EnterMethod("userRepository.DecideAccountStatus", "userID", u.ID, "status", u.AccountStatus)
	query := `UPDATE users SET account_status=$1, approved_by=$2, approved_at=$3, rejected_by=$4, rejected_at=$5,
	          rejection_reason=$6, updated_at=$7
	          WHERE id=$8 AND account_status='PENDING' AND deleted_at IS NULL`
	u.UpdatedAt = time.Now().UTC()
	logger.DatabaseCall("UPDATE", "users", "userID", u.ID)
	res, err := r.db.ExecContext(ctx, query, u.AccountStatus, u.ApprovedBy, u.ApprovedAt, u.RejectedBy,
		u.RejectedAt, u.RejectionReason, u.UpdatedAt, u.ID)
	if err != nil {
		logger.ExitMethodWithError("userRepository.DecideAccountStatus", err, "userID", u.ID)
		return err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "userID", u.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Forbidden("account is no longer pending validation")
	}
	logger.ExitMethod("userRepository.DecideAccountStatus", "userID", u.ID)
	return nil
}

func (r *userRepository) List(ctx context.Context, f domain.UserFilter, page, pageSize int32) ([]domain.User, int32, error) {
	var w whereBuilder
	if !f.IncludeDeleted {
		w.addRaw("deleted_at IS NULL")
	}
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}
	if f.UserType != "" {
		w.add("user_type = ?", f.UserType)
	}
	if f.AccountStatus != "" {
		w.add("account_status = ?", f.AccountStatus)
	}
	if f.Search != "" {
		w.add("(email ILIKE ? OR full_name ILIKE ? OR company_name ILIKE ?)", "%"+f.Search+"%")
	}

	var total int32
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}
	users := []domain.User{}
	query := `SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY created_at DESC, id DESC` + pageClause(page, pageSize)
	if err := r.db.SelectContext(ctx, &users, query, w.args...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) ListIDsByRoles(ctx context.Context, roles []domain.Role) ([]int32, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	ids := []int32{}
	query := `SELECT id FROM users WHERE role = ANY($1) AND account_status = 'APPROVED' AND deleted_at IS NULL ORDER BY id`
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(names)); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepository) ListIDsByAudience(ctx context.Context, audience domain.BroadcastAudience) ([]int32, error) {
	var w whereBuilder
	w.addRaw("deleted_at IS NULL")
	switch audience {
	case domain.AudienceLandlords:
		w.add("user_type = ?", domain.UserTypeLandlord)
	case domain.AudienceTenants:
		w.add("user_type = ?", domain.UserTypeTenant)
	case domain.AudienceStaff:
		w.add("role <> ?", domain.RoleUser)
	}
	ids := []int32{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users`+w.String()+` ORDER BY id`, w.args...); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepository) SoftDelete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET deleted_at=$1, updated_at=$1 WHERE id=$2 AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "user")
}

func (r *userRepository) Restore(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET deleted_at=NULL, updated_at=$1 WHERE id=$2 AND deleted_at IS NOT NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "deleted user")
}
