package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"rebelchat/rebelchat/sources"
	"rebelchat/rebelchat/sources/psql/models"
)

var (
	_ sources.UserStore = (*UserStore)(nil)
	_ sources.ChatStore = (*ChatStore)(nil)
)

func strPtr(s string) *string { return &s }

func TestUpsertUserRefreshesLastLoginWithoutDuplicating(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first, err := s.UpsertUser(ctx, models.InsertUser{CognitoSub: "sub-1", Email: "a@rebel.energy", Name: strPtr("Ada")})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	clock = clock.Add(time.Hour)
	second, err := s.UpsertUser(ctx, models.InsertUser{CognitoSub: "sub-1", Email: "ada@rebel.energy"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", s.Len())
	}
	if second.ID != first.ID {
		t.Errorf("expected same id, got %s and %s", first.ID, second.ID)
	}
	if !second.LastLogin.After(first.LastLogin) {
		t.Errorf("expected lastLogin to move forward: %v -> %v", first.LastLogin, second.LastLogin)
	}
	if second.Email != "ada@rebel.energy" {
		t.Errorf("expected email overwritten, got %s", second.Email)
	}

	got, _ := s.GetUserByEmail(ctx, "ada@rebel.energy")
	if got == nil || got.ID != first.ID {
		t.Errorf("lookup by email failed: %+v", got)
	}
}

func TestUpdateUserLastLogin(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	u, _ := s.CreateUser(ctx, models.InsertUser{CognitoSub: "sub-2", Email: "b@rebel.energy"})

	clock = clock.Add(time.Minute)
	if err := s.UpdateUserLastLogin(ctx, "sub-2"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetUser(ctx, u.ID)
	if !got.LastLogin.Equal(clock) {
		t.Errorf("expected %v, got %v", clock, got.LastLogin)
	}

	if err := s.UpdateUserLastLogin(ctx, "unknown"); err != nil {
		t.Errorf("unknown sub should be a no-op, got %v", err)
	}
	if missing, _ := s.GetUserByCognitoSub(ctx, "unknown"); missing != nil {
		t.Errorf("expected nil for unknown sub")
	}
}

func TestChatStoreSessions(t *testing.T) {
	ctx := context.Background()
	s := NewChatStore()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	uid := "user-1"

	s.SaveMessage(ctx, &models.ChatMessage{SessionID: "s1", Text: "hi", UserID: &uid, Timestamp: base})
	s.SaveMessage(ctx, &models.ChatMessage{SessionID: "s1", Text: "hello", IsBot: true, UserID: &uid, Timestamp: base.Add(time.Second)})
	s.SaveMessage(ctx, &models.ChatMessage{SessionID: "s2", Text: "outage?", UserID: &uid, Timestamp: base.Add(time.Minute)})
	s.SaveMessage(ctx, &models.ChatMessage{SessionID: "anon", Text: "guest"})

	sessions, err := s.ListSessions(ctx, uid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 || sessions[0].SessionID != "s2" {
		t.Fatalf("expected s2 first of 2 sessions, got %+v", sessions)
	}
	if sessions[1].MessageCount != 2 || sessions[1].LastMessage != "hello" || !sessions[1].LastIsBot {
		t.Errorf("unexpected s1 summary %+v", sessions[1])
	}

	msgs, err := s.GetMessagesForUserSession(ctx, uid, "s1")
	if err != nil || len(msgs) != 2 || msgs[0].Text != "hi" {
		t.Fatalf("unexpected transcript %+v, %v", msgs, err)
	}
	if _, err := s.GetMessagesForUserSession(ctx, "someone-else", "s1"); !errors.Is(err, sources.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for foreign user, got %v", err)
	}

	if err := s.DeleteSession(ctx, uid, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteSession(ctx, uid, "s1"); !errors.Is(err, sources.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
	}
	if anon, _ := s.GetMessagesBySession(ctx, "anon"); len(anon) != 1 {
		t.Errorf("anonymous session should survive, got %d", len(anon))
	}
}
