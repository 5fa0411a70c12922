package database

import (
	"path/filepath"
	"testing"

	"github.com/example/psychstudy/internal/cardstore"
	"github.com/example/psychstudy/pkg/models"
	"github.com/jmoiron/sqlx"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKVGetSet(t *testing.T) {
	db := setupTestDB(t)
	kv := NewKVRepository(db, "chat:1")

	if _, ok, err := kv.Get("flashcard-known"); err != nil || ok {
		t.Fatalf("Get on empty store = %v, %v", ok, err)
	}

	if err := kv.Set("flashcard-known", `["card-1"]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set("flashcard-known", `["card-1","card-2"]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, ok, err := kv.Get("flashcard-known")
	if err != nil || !ok || v != `["card-1","card-2"]` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	keys, err := kv.Keys()
	if err != nil || len(keys) != 1 {
		t.Errorf("Keys = %v, %v", keys, err)
	}
}

func TestKVNamespacesIsolated(t *testing.T) {
	db := setupTestDB(t)
	a := NewKVRepository(db, "chat:1")
	b := NewKVRepository(db, "chat:2")

	a.Set("flashcard-stats", `{"card-0":{"ease":2.6,"interval":1,"repetitions":1}}`)
	if _, ok, _ := b.Get("flashcard-stats"); ok {
		t.Error("namespace chat:2 sees chat:1's progress")
	}
}

func TestKVBacksCardStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "progress.db")
	db, err := Connect(TypeSQLite, path)
	if err != nil {
		t.Fatal(err)
	}

	store := cardstore.New(NewKVRepository(db, "console"))
	want := models.ReviewState{Ease: 2.36, Interval: 6, Repetitions: 2, Due: 1718445600000}
	store.SetReviewState("card-4", want)
	store.MarkKnown("card-9")
	db.Close()

	// Progress survives reopening the database
	db, err = Connect(TypeSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	reopened := cardstore.New(NewKVRepository(db, "console"))
	if got, ok := reopened.ReviewState("card-4"); !ok || got != want {
		t.Errorf("ReviewState after reopen = %+v, %v", got, ok)
	}
	if !reopened.IsKnown("card-9") {
		t.Error("known set lost after reopen")
	}
}

func TestConnectUnsupported(t *testing.T) {
	if _, err := Connect("mysql", "x"); err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestLearners(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLearnerRepository(db)

	for _, l := range []models.Learner{
		{ChatID: 10, Username: "dana", NotificationEnabled: true},
		{ChatID: 20, Username: "noa", NotificationEnabled: true},
	} {
		l := l
		if err := repo.Register(&l); err != nil {
			t.Fatal(err)
		}
	}

	// Registering again refreshes the name and keeps the settings
	if err := repo.SetNotifications(20, false); err != nil {
		t.Fatal(err)
	}
	if err := repo.Register(&models.Learner{ChatID: 20, Username: "noa_k", NotificationEnabled: true}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByChatID(20)
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "noa_k" || got.NotificationEnabled {
		t.Errorf("learner 20 = %+v", got)
	}
	if got.Namespace() != "chat:20" {
		t.Errorf("Namespace = %s", got.Namespace())
	}

	learners, err := repo.GetForNotification()
	if err != nil {
		t.Fatal(err)
	}
	if len(learners) != 1 || learners[0].ChatID != 10 {
		t.Errorf("GetForNotification = %+v", learners)
	}

	if err := repo.SetNotifications(99, true); err == nil {
		t.Error("SetNotifications on unknown learner should fail")
	}
}
