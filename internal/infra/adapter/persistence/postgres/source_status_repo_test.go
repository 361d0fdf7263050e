package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/infra/adapter/persistence/postgres"
)

/* ──────────────────────────────── helpers ──────────────────────────────── */

func statusRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"content_type", "url", "enabled", "last_success", "failure_count", "priority", "parser",
	})
}

/* ──────────────────────────────── 1. Load ──────────────────────────────── */

func TestSourceStatusRepo_Load(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT content_type, url, enabled`)).
		WillReturnRows(statusRows().
			AddRow("60s", "https://a.example.com/60s", true, 1709625600.5, 0, 1, "negotiated").
			AddRow("60s", "https://b.example.com/60s", false, 0.0, 6, 2, "binary_image").
			AddRow("zhihu", "https://z.example.com", true, 0.0, 1, 1, "envelope"))

	repo := postgres.NewSourceStatusRepo(db)
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}

	want := map[string][]entity.SourceSnapshot{
		"60s": {
			{URL: "https://a.example.com/60s", Enabled: true, LastSuccess: 1709625600.5, Priority: 1, Parser: "negotiated"},
			{URL: "https://b.example.com/60s", Enabled: false, FailureCount: 6, Priority: 2, Parser: "binary_image"},
		},
		"zhihu": {
			{URL: "https://z.example.com", Enabled: true, FailureCount: 1, Priority: 1, Parser: "envelope"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceStatusRepo_LoadEmpty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT content_type`)).WillReturnRows(statusRows())

	repo := postgres.NewSourceStatusRepo(db)
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty overlay, got %v", got)
	}
}

/* ──────────────────────────────── 2. Save ──────────────────────────────── */

func TestSourceStatusRepo_Save(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO source_status`))
	// content types are written in name order
	prep.ExpectExec().
		WithArgs("60s", "https://a.example.com/60s", true, 1709625600.5, 0, 1, "negotiated").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("ithome", "https://www.example.com/rss/", false, float64(0), 6, 1, "rss").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := postgres.NewSourceStatusRepo(db)
	err := repo.Save(context.Background(), map[string][]entity.SourceSnapshot{
		"ithome": {{URL: "https://www.example.com/rss/", Enabled: false, FailureCount: 6, Priority: 1, Parser: "rss"}},
		"60s":    {{URL: "https://a.example.com/60s", Enabled: true, LastSuccess: 1709625600.5, Priority: 1, Parser: "negotiated"}},
	})
	if err != nil {
		t.Fatalf("Save err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceStatusRepo_SaveBeginError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	repo := postgres.NewSourceStatusRepo(db)
	err := repo.Save(context.Background(), map[string][]entity.SourceSnapshot{})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
