package auth

import (
	"context"
	"testing"

	"busline/internal/shared/apperrors"
	"busline/internal/users"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open error: %v", err)
	}
	return NewRepository(gdb), mock
}

func TestFindByEmailNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListAppliesFilter(t *testing.T) {
	repo, mock := newMockRepository(t)
	company := uuid.New()
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE company_id = \$1 AND role = \$2 ORDER BY last_name ASC, first_name ASC`).
		WithArgs(company, users.RoleAgent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "role", "active"}).
			AddRow(id, "Awa", "Kone", "AGENT", true))

	got, err := repo.List(context.Background(), OperatorFilter{CompanyID: &company, Role: users.RoleAgent})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != id || !got[0].Active {
		t.Fatalf("unexpected operators %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateUnknownOperator(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), uuid.New(), map[string]interface{}{"active": false})
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
