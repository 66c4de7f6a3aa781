package refreshtokens

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var (
	tsExpires = time.Date(2026, 6, 8, 12, 0, 0, 0, time.UTC)
	tsCreated = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,.*\$10\)\s*$`

	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "u1", "tok123", "Firefox", "Linux", "desktop", "web", "10.0.0.1", tsExpires, tsCreated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rt := &models.RefreshToken{
		UserID:    "u1",
		Token:     "tok123",
		Device:    models.DeviceInfo{Browser: "Firefox", OS: "Linux", Platform: "desktop", Source: "web"},
		IPAddress: "10.0.0.1",
		ExpiresAt: tsExpires,
		CreatedAt: tsCreated,
	}
	if err := repo.Create(context.Background(), rt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rt.ID == "" {
		t.Fatal("expected generated ID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+refresh_tokens`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "refresh_tokens_token_key"})

	err := repo.Create(context.Background(), &models.RefreshToken{UserID: "u1", Token: "dup"})
	if !errors.Is(err, common.ErrDuplicateToken) {
		t.Fatalf("expected ErrDuplicateToken, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+refresh_tokens`).WillReturnError(errors.New("insert failed"))

	err := repo.Create(context.Background(), &models.RefreshToken{UserID: "u1", Token: "t"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, common.ErrDuplicateToken) {
		t.Fatalf("plain db error must not map to duplicate: %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	revokedAt := tsCreated.Add(time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "token", "device_browser", "device_os", "device_platform", "device_source",
		"ip_address", "expires_at", "revoked", "revoked_at", "created_at",
	}).AddRow("id1", "u1", "tok", "Chrome", "macOS", "desktop", "web", "::1", tsExpires, true, revokedAt, tsCreated)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*user_id,.*FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`).
		WithArgs("tok").
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" || got.Device.Browser != "Chrome" || got.IPAddress != "::1" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.Revoked || got.RevokedAt == nil || !got.RevokedAt.Equal(revokedAt) {
		t.Fatalf("revocation not scanned: %+v", got)
	}
	if !got.ExpiresAt.Equal(tsExpires) {
		t.Fatalf("expires mismatch: %v", got.ExpiresAt)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+refresh_tokens`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	at := tsCreated

	t.Run("any owner", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`^UPDATE refresh_tokens SET revoked = TRUE, revoked_at = \$2 WHERE token = \$1 AND revoked = FALSE$`).
			WithArgs("tok", at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.Revoke(context.Background(), "tok", "", at); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("scoped to user, nothing matched", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`WHERE token = \$1 AND revoked = FALSE AND user_id = \$3$`).
			WithArgs("tok", at, "u1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.Revoke(context.Background(), "tok", "u1", at); err != nil {
			t.Fatalf("revoking an unknown token must succeed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE refresh_tokens`).WillReturnError(errors.New("boom"))

		if err := repo.Revoke(context.Background(), "tok", "", at); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE refresh_tokens SET revoked = TRUE, revoked_at = \$2 WHERE user_id = \$1 AND revoked = FALSE$`).
		WithArgs("u1", tsCreated).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.RevokeAllForUser(context.Background(), "u1", tsCreated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 revoked, got %d", n)
	}
}

func TestDeleteAllForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM refresh_tokens WHERE user_id = \$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.DeleteAllForUser(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountActive(t *testing.T) {
	now := tsCreated

	tests := []struct {
		name   string
		userID string
		query  string
		args   []driver.Value
	}{
		{"all users", "", `expires_at > \$1$`, []driver.Value{now}},
		{"one user", "u1", `expires_at > \$1 AND user_id = \$2$`, []driver.Value{now, "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM refresh_tokens WHERE revoked = FALSE AND ` + tt.query).
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

			n, err := repo.CountActive(context.Background(), tt.userID, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != 4 {
				t.Fatalf("expected 4, got %d", n)
			}
		})
	}
}

func TestPurgeExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM refresh_tokens WHERE expires_at <= \$1$`).
		WithArgs(tsExpires).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.PurgeExpired(context.Background(), tsExpires)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}
