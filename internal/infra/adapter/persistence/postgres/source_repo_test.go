package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/infra/adapter/persistence/postgres"
)

func sourceRow(src *entity.Source) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "handle", "last_item_id",
		"last_checked_at", "active",
	}).AddRow(
		src.ID, src.Handle, src.LastItemID,
		src.LastCheckedAt, src.Active,
	)
}

func TestSourceRepo_GetByHandle(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	lastItem := "Cxyz123"
	now := time.Now()
	want := &entity.Source{
		ID: 1, Handle: "natgeo",
		LastItemID: &lastItem, LastCheckedAt: &now, Active: true,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id`)).
		WithArgs("natgeo").
		WillReturnRows(sourceRow(want))

	repo := postgres.NewSourceRepo(db)
	got, err := repo.GetByHandle(context.Background(), "natgeo")
	if err != nil {
		t.Fatalf("GetByHandle err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRepo_GetByHandle_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "handle", "last_item_id", "last_checked_at", "active",
		}))

	repo := postgres.NewSourceRepo(db)
	got, err := repo.GetByHandle(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByHandle err=%v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing handle, got %+v", got)
	}
}

func TestSourceRepo_ListActive(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(`FROM sources`).
		WillReturnRows(sourceRow(&entity.Source{
			ID: 1, Handle: "natgeo",
			LastCheckedAt: &now, Active: true,
		}))

	repo := postgres.NewSourceRepo(db)
	got, err := repo.ListActive(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("ListActive err=%v len=%d", err, len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO sources`)).
		WithArgs("natgeo", nil, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	repo := postgres.NewSourceRepo(db)
	source := &entity.Source{Handle: "natgeo", Active: true}
	if err := repo.Create(context.Background(), source); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if source.ID != 7 {
		t.Fatalf("expected assigned id 7, got %d", source.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRepo_UpdateLastItemID(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sources SET last_item_id`)).
		WithArgs("Cnew999", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewSourceRepo(db)
	if err := repo.UpdateLastItemID(context.Background(), 1, "Cnew999"); err != nil {
		t.Fatalf("UpdateLastItemID err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRepo_SetActive_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sources SET active`)).
		WithArgs(false, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := postgres.NewSourceRepo(db)
	err := repo.SetActive(context.Background(), 99, false)
	if err != entity.ErrSourceNotFound {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestSourceRepo_TouchCheckedAt(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sources SET last_checked_at`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewSourceRepo(db)
	if err := repo.TouchCheckedAt(context.Background(), 1); err != nil {
		t.Fatalf("TouchCheckedAt err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
