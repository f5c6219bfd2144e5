package postgres_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/infra/adapter/persistence/postgres"
)

func TestDestinationRepo_ListForSource(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM destinations`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source_id", "channel_id", "webhook_url"}).
			AddRow(int64(10), int64(1), "chan-1", "https://discord.com/api/webhooks/10/x").
			AddRow(int64(11), int64(1), "chan-2", "https://discord.com/api/webhooks/11/y"))

	repo := postgres.NewDestinationRepo(db)
	got, err := repo.ListForSource(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListForSource err=%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 destinations, got %d", len(got))
	}
	if got[0].ChannelID != "chan-1" || got[1].WebhookURL != "https://discord.com/api/webhooks/11/y" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestDestinationRepo_Add(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO destinations`)).
		WithArgs(int64(1), "chan-1", "https://discord.com/api/webhooks/10/x").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	repo := postgres.NewDestinationRepo(db)
	dest := &entity.Destination{SourceID: 1, ChannelID: "chan-1", WebhookURL: "https://discord.com/api/webhooks/10/x"}
	if err := repo.Add(context.Background(), dest); err != nil {
		t.Fatalf("Add err=%v", err)
	}
	if dest.ID != 10 {
		t.Fatalf("expected assigned id 10, got %d", dest.ID)
	}
}

func TestDestinationRepo_Remove(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM destinations`)).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewDestinationRepo(db)
	if err := repo.Remove(context.Background(), 10); err != nil {
		t.Fatalf("Remove err=%v", err)
	}
}
