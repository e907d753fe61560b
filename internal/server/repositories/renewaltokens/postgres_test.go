package renewaltokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleToken() *models.RenewalToken {
	return &models.RenewalToken{
		ID:        "id-1",
		Token:     "tok123",
		UserID:    "u1",
		LineageID: "lin-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+renewal_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`

	tok := sampleToken()
	mock.ExpectExec(q).
		WithArgs(tok.ID, tok.Token, tok.UserID, tok.LineageID, tok.CreatedAt, tok.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), tok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+renewal_tokens\b`

	mock.ExpectExec(q).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleToken())
	if err == nil || !regexp.MustCompile(`error performing sql request: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+renewal_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`

	expires := time.Now().Add(10 * time.Hour)
	created := time.Now()
	rows := sqlmock.NewRows([]string{"id", "token", "user_id", "lineage_id", "created_at", "expires_at", "revoked"}).
		AddRow("id-1", "tok123", "u1", "lin-1", created, expires, true)

	mock.ExpectQuery(q).
		WithArgs("tok123").
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" || got.LineageID != "lin-1" || !got.Revoked {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+renewal_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestRedeem_Wins(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+renewal_tokens\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+token\s*=\s*\$1\s+AND\s+NOT\s+revoked\s+AND\s+expires_at\s*>\s*now\(\)\s+RETURNING\b`

	expires := time.Now().Add(10 * time.Hour)
	created := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "lineage_id", "created_at", "expires_at"}).
		AddRow("id-1", "u1", "lin-1", created, expires)

	mock.ExpectQuery(q).
		WithArgs("tok123").
		WillReturnRows(rows)

	got, err := repo.Redeem(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" || got.LineageID != "lin-1" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if !got.Revoked {
		t.Fatalf("redeemed record must be marked revoked")
	}
}

func TestRedeem_NotLive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+renewal_tokens\b`

	mock.ExpectQuery(q).
		WithArgs("tok123").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Redeem(context.Background(), "tok123")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestRevoke_Idempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+renewal_tokens\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+token\s*=\s*\$1\s*$`

	// Zero rows affected is still success.
	mock.ExpectExec(q).
		WithArgs("unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Revoke(context.Background(), "unknown"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRevokeLineage_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+renewal_tokens\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+lineage_id\s*=\s*\$1\s+AND\s+NOT\s+revoked\s*$`

	mock.ExpectExec(q).
		WithArgs("lin-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.RevokeLineage(context.Background(), "lin-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
