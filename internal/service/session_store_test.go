package service

import (
	"testing"
	"time"
)

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	if err := store.Store("jti-1", "u1", time.Hour); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Exists("jti-1")
	if err != nil || !ok {
		t.Fatalf("expected jti to exist, ok=%v err=%v", ok, err)
	}
	if err := store.Revoke("jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := store.Exists("jti-1"); ok {
		t.Fatalf("expected jti to be revoked")
	}

	if err := store.Store("jti-2", "u1", -time.Second); err != nil {
		t.Fatalf("store: %v", err)
	}
	if ok, _ := store.Exists("jti-2"); ok {
		t.Fatalf("expected expired jti to be missing")
	}
}

func TestRedisSessionStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client)

	if err := store.Store("jti-1", "u1", time.Hour); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := mr.Get("auth:session:jti-1")
	if err != nil || got != "u1" {
		t.Fatalf("expected user id stored under prefixed key, got %q err=%v", got, err)
	}
	if ttl := mr.TTL("auth:session:jti-1"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}

	ok, err := store.Exists("jti-1")
	if err != nil || !ok {
		t.Fatalf("expected jti to exist, ok=%v err=%v", ok, err)
	}

	mr.FastForward(2 * time.Hour)
	if ok, _ := store.Exists("jti-1"); ok {
		t.Fatalf("expected jti to expire")
	}

	if err := store.Store("jti-2", "u1", time.Hour); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := store.Revoke("jti-2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := store.Exists("jti-2"); ok {
		t.Fatalf("expected jti to be revoked")
	}

	if NewRedisSessionStore(nil) != nil {
		t.Fatalf("expected nil store without client")
	}
}

func TestJWTService_RedisBackedRevocation(t *testing.T) {
	_, client := newTestRedis(t)
	svc := NewJWTServiceWithStore("secret", NewRedisSessionStore(client))

	session, err := svc.IssueSession("u1", time.Hour)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if _, err := svc.ParseSession(session.Token); err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if err := svc.RevokeSession(session.Token); err != nil {
		t.Fatalf("revoke session: %v", err)
	}
	if _, err := svc.ParseSession(session.Token); err == nil {
		t.Fatalf("expected revoked session to fail")
	}
}
