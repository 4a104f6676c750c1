package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectExec("INSERT INTO users").
		WithArgs("user-1", "ana@example.com", nil).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), User{ID: "user-1", Email: "ana@example.com"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, email, industry, created_at, updated_at FROM users WHERE email = \\$1").
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "industry", "created_at", "updated_at"}).
			AddRow("user-1", "ana@example.com", "tech", created, created))
	mock.ExpectQuery("SELECT id, email, industry, created_at, updated_at FROM users WHERE email = \\$1").
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "industry", "created_at", "updated_at"}))

	user, err := repo.GetByEmail(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.ID != "user-1" || user.Industry != "tech" {
		t.Fatalf("unexpected user %+v", user)
	}
	if _, err := repo.GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
