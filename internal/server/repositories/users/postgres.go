package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

const emailConstraint = "users_email_key"

const userColumns = `id, name, email, password_hash, role, is_email_verified, profile_picture,
		email_verification_otp, email_verification_expires,
		password_reset_otp, password_reset_token, password_reset_expires,
		two_factor_secret, two_factor_enabled,
		last_login, last_login_device, login_attempts, lock_until,
		is_suspended, suspended_at, suspended_by, suspension_reason,
		created_at, updated_at`

var sortColumns = map[string]string{
	SortByCreatedAt: "created_at",
	SortByName:      "name",
	SortByEmail:     "email",
	SortByLastLogin: "last_login",
}

// PostgresRepository stores users in the users table over dbx.DBTX, so it
// works the same on *sql.DB and inside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	if _, err := r.db.ExecContext(ctx, query, userArgs(user)...); err != nil {
		if dbx.IsUniqueViolation(err, emailConstraint) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE password_reset_token = $1`, token)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET
		name = $2, email = $3, password_hash = $4, role = $5, is_email_verified = $6, profile_picture = $7,
		email_verification_otp = $8, email_verification_expires = $9,
		password_reset_otp = $10, password_reset_token = $11, password_reset_expires = $12,
		two_factor_secret = $13, two_factor_enabled = $14,
		last_login = $15, last_login_device = $16, login_attempts = $17, lock_until = $18,
		is_suspended = $19, suspended_at = $20, suspended_by = $21, suspension_reason = $22,
		created_at = $23, updated_at = $24
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, userArgs(user)...)
	if err != nil {
		if dbx.IsUniqueViolation(err, emailConstraint) {
			return common.ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*models.User, int, error) {
	var w where
	if f.Search != "" {
		p := w.arg("%" + escapeLike(f.Search) + "%")
		w.add("(name ILIKE " + p + " OR email ILIKE " + p + ")")
	}
	if f.Role != "" {
		w.add("role = " + w.arg(string(f.Role)))
	}
	if f.Verified != nil {
		w.add("is_email_verified = " + w.arg(*f.Verified))
	}
	if f.Suspended != nil {
		w.add("is_suspended = " + w.arg(*f.Suspended))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[SortByCreatedAt]
	}
	direction := "DESC NULLS LAST"
	if f.SortAsc {
		direction = "ASC NULLS LAST"
	}

	query := `SELECT ` + userColumns + ` FROM users` + w.sql() +
		` ORDER BY ` + column + ` ` + direction + `, id` +
		` LIMIT ` + w.arg(f.Limit) + ` OFFSET ` + w.arg(f.Offset)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return result, total, nil
}

func (r *PostgresRepository) Count(ctx context.Context, f CountFilter) (int, error) {
	var w where
	if f.Role != "" {
		w.add("role = " + w.arg(string(f.Role)))
	}
	if f.Verified != nil {
		w.add("is_email_verified = " + w.arg(*f.Verified))
	}
	if f.Suspended != nil {
		w.add("is_suspended = " + w.arg(*f.Suspended))
	}
	if f.CreatedSince != nil {
		w.add("created_at >= " + w.arg(*f.CreatedSince))
	}

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                                      models.User
		role                                   string
		emailOTP, resetOTP, resetToken, secret sql.NullString
		suspendedBy, suspensionReason          sql.NullString
		emailExpires, resetExpires, lastLogin  sql.NullTime
		lockUntil, suspendedAt                 sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsEmailVerified, &u.ProfilePicture,
		&emailOTP, &emailExpires,
		&resetOTP, &resetToken, &resetExpires,
		&secret, &u.TwoFactorEnabled,
		&lastLogin, &u.LastLoginDevice, &u.LoginAttempts, &lockUntil,
		&u.IsSuspended, &suspendedAt, &suspendedBy, &suspensionReason,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = models.Role(role)
	u.EmailVerificationOTP = emailOTP.String
	u.EmailVerificationExpires = timeFromNull(emailExpires)
	u.PasswordResetOTP = resetOTP.String
	u.PasswordResetToken = resetToken.String
	u.PasswordResetExpires = timeFromNull(resetExpires)
	u.TwoFactorSecret = secret.String
	u.LastLogin = timeFromNull(lastLogin)
	u.LockUntil = timeFromNull(lockUntil)
	u.SuspendedAt = timeFromNull(suspendedAt)
	u.SuspendedBy = suspendedBy.String
	u.SuspensionReason = suspensionReason.String

	return &u, nil
}

func userArgs(u *models.User) []any {
	return []any{
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.IsEmailVerified, u.ProfilePicture,
		nullString(u.EmailVerificationOTP), nullTime(u.EmailVerificationExpires),
		nullString(u.PasswordResetOTP), nullString(u.PasswordResetToken), nullTime(u.PasswordResetExpires),
		nullString(u.TwoFactorSecret), u.TwoFactorEnabled,
		nullTime(u.LastLogin), u.LastLoginDevice, u.LoginAttempts, nullTime(u.LockUntil),
		u.IsSuspended, nullTime(u.SuspendedAt), nullString(u.SuspendedBy), nullString(u.SuspensionReason),
		u.CreatedAt, u.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timeFromNull(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
