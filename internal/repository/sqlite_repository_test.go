package repository

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/NirVa-gh/AppAuth/internal/domain"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

var schema = []string{
	`PRAGMA journal_mode=WAL;`,
	`PRAGMA busy_timeout=5000;`,
	`PRAGMA foreign_keys=ON;`,
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		is_partner INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		status TEXT DEFAULT 'new',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		user_id INTEGER REFERENCES users(id)
	);`,
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}

func seedUser(t *testing.T, repo UserRepository, username, email string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Email: email, PasswordHash: "hash"}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	created := seedUser(t, repo, "alice", "alice@x.com")

	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected creation timestamp")
	}

	fetched, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if fetched.ID != created.ID || fetched.Email != "alice@x.com" || fetched.IsPartner {
		t.Fatalf("unexpected user: %+v", fetched)
	}

	if _, err := repo.GetByUsername(context.Background(), "nobody"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUserRepositoryUniqueConstraint(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	seedUser(t, repo, "alice", "alice@x.com")

	err := repo.Create(context.Background(), &domain.User{
		Username: "alice", Email: "other@x.com", PasswordHash: "hash",
	})
	if err == nil {
		t.Fatalf("expected conflict for duplicate username")
	}
	if de := util.ToDomainError(err); de.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%v)", de.HTTPStatus, err)
	}

	exists, err := repo.ExistsByUsernameOrEmail(context.Background(), "zzz", "other@x.com")
	if err != nil {
		t.Fatalf("ExistsByUsernameOrEmail: %v", err)
	}
	if exists {
		t.Fatalf("email of the failed insert must not be persisted")
	}
}

func TestRequestRepositoryCRUD(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	requests := NewRequestRepository(db)
	owner := seedUser(t, users, "alice", "alice@x.com")

	first := &domain.Request{Title: "Bug", Content: "It crashes", Status: domain.StatusNew, UserID: &owner.ID}
	if err := requests.Create(context.Background(), first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := &domain.Request{Title: "Feature", Content: "Please add", Status: domain.StatusNew, UserID: &owner.ID}
	if err := requests.Create(context.Background(), second); err != nil {
		t.Fatalf("create: %v", err)
	}
	orphan := &domain.Request{Title: "Orphan", Content: "No owner", Status: domain.StatusNew}
	if err := requests.Create(context.Background(), orphan); err != nil {
		t.Fatalf("create orphan: %v", err)
	}

	fetched, err := requests.GetByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Title != "Bug" || fetched.UserID == nil || *fetched.UserID != owner.ID {
		t.Fatalf("unexpected request: %+v", fetched)
	}

	fetchedOrphan, err := requests.GetByID(context.Background(), orphan.ID)
	if err != nil {
		t.Fatalf("GetByID orphan: %v", err)
	}
	if fetchedOrphan.UserID != nil {
		t.Fatalf("expected nil owner, got %v", fetchedOrphan.UserID)
	}

	all, err := requests.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 || all[0].ID != orphan.ID || all[2].ID != first.ID {
		t.Fatalf("expected newest-first ordering, got %+v", all)
	}

	mine, err := requests.ListByUser(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 owned requests, got %d", len(mine))
	}

	if err := requests.UpdateStatus(context.Background(), first.ID, domain.StatusAccepted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	accepted, err := requests.ListByStatus(context.Background(), domain.StatusAccepted)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(accepted) != 1 || accepted[0].ID != first.ID {
		t.Fatalf("expected only the accepted request, got %+v", accepted)
	}

	if err := requests.UpdateContent(context.Background(), second.ID, "Renamed", "New body"); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	renamed, err := requests.GetByID(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if renamed.Title != "Renamed" || renamed.Content != "New body" {
		t.Fatalf("content update not applied: %+v", renamed)
	}

	if err := requests.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := requests.GetByID(context.Background(), first.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestRequestRepositoryStorageFailure(t *testing.T) {
	db := openTestDB(t)
	requests := NewRequestRepository(db)
	users := NewUserRepository(db)
	owner := seedUser(t, users, "alice", "alice@x.com")
	request := &domain.Request{Title: "t", Content: "c", Status: domain.StatusNew, UserID: &owner.ID}
	if err := requests.Create(context.Background(), request); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	assertStorageError := func(err error) {
		t.Helper()
		if err == nil {
			t.Fatalf("expected error from closed database")
		}
		de := util.ToDomainError(err)
		if de.Code != "STORAGE_ERROR" {
			t.Fatalf("expected STORAGE_ERROR, got %s (%v)", de.Code, err)
		}
	}

	assertStorageError(requests.UpdateStatus(context.Background(), request.ID, domain.StatusPending))
	_, err := requests.ListAll(context.Background())
	assertStorageError(err)
	assertStorageError(requests.Create(context.Background(), &domain.Request{Title: "x", Content: "y", Status: domain.StatusNew}))
}

func TestRequestRepositoryMissingRows(t *testing.T) {
	requests := NewRequestRepository(openTestDB(t))

	if err := requests.UpdateContent(context.Background(), 42, "t", "c"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if err := requests.UpdateStatus(context.Background(), 42, domain.StatusPending); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if err := requests.Delete(context.Background(), 42); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
