package messages_test

import (
	"context"
	"testing"
)

func TestReactReplacesNotAppends(t *testing.T) {
	f := newFixture(t)
	seedUser(t, f.db, 1, "alice")
	seedUser(t, f.db, 2, "bob")
	ctx := context.Background()

	m := f.sendMessage(t, 1, 2, "hi")

	if _, err := f.store.React(ctx, m.ID, 1, "👍"); err != nil {
		t.Fatalf("first react: %v", err)
	}
	reactions, err := f.store.React(ctx, m.ID, 1, "❤️")
	if err != nil {
		t.Fatalf("second react: %v", err)
	}
	if len(reactions) != 1 {
		t.Fatalf("expected one reaction for alice, got %d", len(reactions))
	}
	if reactions[0].UserID != 1 || reactions[0].Emoji != "❤️" {
		t.Fatalf("later reaction must replace: %+v", reactions[0])
	}
}

func TestReactEmptyEmojiClears(t *testing.T) {
	f := newFixture(t)
	seedUser(t, f.db, 1, "alice")
	seedUser(t, f.db, 2, "bob")
	ctx := context.Background()

	m := f.sendMessage(t, 1, 2, "hi")
	if _, err := f.store.React(ctx, m.ID, 2, "👍"); err != nil {
		t.Fatalf("react: %v", err)
	}
	reactions, err := f.store.React(ctx, m.ID, 2, "")
	if err != nil {
		t.Fatalf("clear react: %v", err)
	}
	if len(reactions) != 0 {
		t.Fatalf("expected reactions cleared, got %+v", reactions)
	}
}

func TestTombstoneClearsContentKeepsRecord(t *testing.T) {
	f := newFixture(t)
	seedUser(t, f.db, 1, "alice")
	seedUser(t, f.db, 2, "bob")
	ctx := context.Background()

	m := f.sendMessage(t, 1, 2, "secret")
	if _, err := f.store.React(ctx, m.ID, 2, "😮"); err != nil {
		t.Fatalf("react: %v", err)
	}

	if err := f.store.TombstoneForEveryone(ctx, m.ID); err != nil {
		t.Fatalf("tombstone: %v", err)
	}

	got, err := f.store.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get after tombstone: %v", err)
	}
	if got.ID != m.ID {
		t.Fatalf("id changed: %d vs %d", got.ID, m.ID)
	}
	if !got.DeletedForEveryone {
		t.Fatalf("tombstone flag not set")
	}
	if got.Body != "" || got.MediaURL != "" {
		t.Fatalf("content not cleared: %q %q", got.Body, got.MediaURL)
	}
	if got.CreatedAt.Unix() != m.CreatedAt.Unix() {
		t.Fatalf("createdAt changed: %v vs %v", got.CreatedAt, m.CreatedAt)
	}
	if len(got.Reactions) != 1 {
		t.Fatalf("reactions must survive the tombstone, got %d", len(got.Reactions))
	}
}

func TestHideForUserOnlyHidesForThatUser(t *testing.T) {
	f := newFixture(t)
	seedUser(t, f.db, 1, "alice")
	seedUser(t, f.db, 2, "bob")
	ctx := context.Background()

	m1 := f.sendMessage(t, 1, 2, "keep")
	m2 := f.sendMessage(t, 1, 2, "hide me")

	if err := f.store.HideForUser(ctx, m2.ID, 2); err != nil {
		t.Fatalf("HideForUser: %v", err)
	}
	// Repeating the hide is a no-op.
	if err := f.store.HideForUser(ctx, m2.ID, 2); err != nil {
		t.Fatalf("repeat HideForUser: %v", err)
	}

	bobView, err := f.store.ListConversation(ctx, m1.ConversationID, 2)
	if err != nil {
		t.Fatalf("ListConversation bob: %v", err)
	}
	if len(bobView) != 1 || bobView[0].ID != m1.ID {
		t.Fatalf("bob should only see the kept message: %+v", bobView)
	}

	aliceView, err := f.store.ListConversation(ctx, m1.ConversationID, 1)
	if err != nil {
		t.Fatalf("ListConversation alice: %v", err)
	}
	if len(aliceView) != 2 {
		t.Fatalf("alice should still see both messages, got %d", len(aliceView))
	}
}

func TestGetMissingMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Get(context.Background(), 12345)
	if err == nil {
		t.Fatalf("expected an error for a missing message")
	}
}
