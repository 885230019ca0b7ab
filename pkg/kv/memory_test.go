package kv

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("v")) {
		t.Errorf("got %q want %q", got, "v")
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired key should be gone, got %v", err)
	}
}

func TestMemoryStoreGetDel(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.GetDel(ctx, "k")
	if err != nil {
		t.Fatalf("GetDel failed: %v", err)
	}
	if !bytes.Equal(got, []byte("v")) {
		t.Errorf("got %q want %q", got, "v")
	}

	// Consumed: a second read misses.
	if _, err := s.GetDel(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("consumed key should be gone, got %v", err)
	}

	// Expired keys read as absent.
	if err := s.Set(ctx, "e", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := s.GetDel(ctx, "e"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired key should be gone, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted key should be gone, got %v", err)
	}

	// Deleting an absent key is fine.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestMemoryStoreSetNX(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "k", []byte("first"), 0)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win: ok=%v err=%v", ok, err)
	}
	ok, err = s.SetNX(ctx, "k", []byte("second"), 0)
	if err != nil {
		t.Fatalf("SetNX failed: %v", err)
	}
	if ok {
		t.Error("second SetNX should lose")
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("first")) {
		t.Errorf("value overwritten: %q", got)
	}

	// An expired key can be claimed again.
	if err := s.Set(ctx, "ttl", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	ok, err = s.SetNX(ctx, "ttl", []byte("new"), 0)
	if err != nil || !ok {
		t.Errorf("SetNX on expired key should win: ok=%v err=%v", ok, err)
	}
}
