package memstore

import (
	"context"
	"testing"
	"time"
)

func TestStore_SetGetDel(t *testing.T) {
	s := New(time.Minute)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("empty store get: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("get=%q ok=%v err=%v", got, ok, err)
	}
	if s.Len() != 1 {
		t.Fatalf("len=%d want 1", s.Len())
	}

	if err := s.Del(ctx, "k", "absent"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("key should be gone after Del")
	}
}

func TestStore_ExplicitTTLExpires(t *testing.T) {
	s := New(time.Hour)
	ctx := context.Background()

	if err := s.Set(ctx, "short", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok, _ := s.Get(ctx, "short"); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("entry did not expire")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
