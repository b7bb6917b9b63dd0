package conversations_test

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/akash27nik/Chat-App/internal/conversations"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	schema, err := os.ReadFile("../../sql/schema.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	for _, stmt := range strings.Split(string(schema), ";\n") {
		if st := strings.TrimSpace(stmt); st != "" {
			if _, err := db.Exec(st); err != nil {
				t.Fatalf("apply schema: %v", err)
			}
		}
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, id int64, name string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, 'x', ?)`,
		id, name, name+"@example.com", time.Now().UTC())
	if err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
}

func seedMessage(t *testing.T, db *sql.DB, convID, sender, receiver int64, body, status string, at time.Time) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO messages (conversation_id, sender_id, receiver_id, body, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		convID, sender, receiver, body, status, at)
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func TestGetOrCreateIsSymmetric(t *testing.T) {
	db := newTestDB(t)
	store := conversations.New(db)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	ctx := context.Background()

	ab, err := store.GetOrCreate(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetOrCreate(1,2): %v", err)
	}
	ba, err := store.GetOrCreate(ctx, 2, 1)
	if err != nil {
		t.Fatalf("GetOrCreate(2,1): %v", err)
	}
	if ab != ba {
		t.Fatalf("pair resolved to different conversations: %d vs %d", ab, ba)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM conversations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one conversation per pair, got %d", n)
	}
}

func TestLookupNeverCreates(t *testing.T) {
	db := newTestDB(t)
	store := conversations.New(db)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	ctx := context.Background()

	if _, found, err := store.Lookup(ctx, 1, 2); err != nil || found {
		t.Fatalf("expected no conversation yet, found=%v err=%v", found, err)
	}
	id, err := store.GetOrCreate(ctx, 2, 1)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	got, found, err := store.Lookup(ctx, 1, 2)
	if err != nil || !found || got != id {
		t.Fatalf("Lookup after create: id=%d found=%v err=%v, want %d", got, found, err, id)
	}
}

func TestMessageIDsKeepAppendOrder(t *testing.T) {
	db := newTestDB(t)
	store := conversations.New(db)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	ctx := context.Background()

	conv, err := store.GetOrCreate(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	base := time.Now().UTC()
	// Interleaved senders; order must follow insertion, not sender.
	m1 := seedMessage(t, db, conv, 1, 2, "one", "sent", base)
	m2 := seedMessage(t, db, conv, 2, 1, "two", "sent", base.Add(time.Second))
	m3 := seedMessage(t, db, conv, 1, 2, "three", "sent", base.Add(2*time.Second))

	ids, err := store.MessageIDs(ctx, conv)
	if err != nil {
		t.Fatalf("MessageIDs: %v", err)
	}
	want := []int64{m1, m2, m3}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order %v, want %v", ids, want)
		}
	}
}

func TestContactsOrderedByMostRecentMessage(t *testing.T) {
	db := newTestDB(t)
	store := conversations.New(db)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	seedUser(t, db, 3, "carol")
	seedUser(t, db, 4, "dave")
	ctx := context.Background()

	convAB, _ := store.GetOrCreate(ctx, 1, 2)
	convAC, _ := store.GetOrCreate(ctx, 1, 3)

	base := time.Now().UTC().Truncate(time.Second)
	seedMessage(t, db, convAB, 1, 2, "old", "seen", base.Add(-time.Hour))
	seedMessage(t, db, convAC, 3, 1, "newer", "sent", base)
	seedMessage(t, db, convAC, 3, 1, "newest", "sent", base.Add(time.Minute))

	contacts, err := store.Contacts(ctx, 1)
	if err != nil {
		t.Fatalf("Contacts: %v", err)
	}
	if len(contacts) != 3 {
		t.Fatalf("expected 3 contacts, got %d", len(contacts))
	}
	if contacts[0].UserID != 3 || contacts[1].UserID != 2 {
		t.Fatalf("wrong ordering: %d, %d", contacts[0].UserID, contacts[1].UserID)
	}
	if contacts[0].Unread != 2 {
		t.Fatalf("carol unread = %d, want 2", contacts[0].Unread)
	}
	if contacts[0].LastBody != "newest" {
		t.Fatalf("carol last message = %q, want newest", contacts[0].LastBody)
	}
	if contacts[1].Unread != 0 {
		t.Fatalf("bob unread = %d, want 0", contacts[1].Unread)
	}
	// dave never exchanged a message and sorts last.
	if contacts[2].UserID != 4 || contacts[2].LastAt != nil {
		t.Fatalf("expected dave last with no message, got %+v", contacts[2])
	}
}
