package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	key := NewKey("uploads", "CV.PDF")
	if err := store.Put(ctx, key, strings.NewReader("%PDF-1.4"), "application/pdf"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ok, err := store.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v; want true, nil", ok, err)
	}

	rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(data, []byte("%PDF-1.4")) {
		t.Errorf("Get() = %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := store.Exists(ctx, key); ok {
		t.Error("blob still exists after Delete()")
	}
}

func TestLocalStore_Missing(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	if _, err := store.Get(ctx, "nope.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "nope.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	for _, key := range []string{"", "../outside.pdf", "a/../../outside.pdf"} {
		if err := store.Put(context.Background(), key, strings.NewReader("x"), ""); err == nil {
			t.Errorf("Put(%q) succeeded, want error", key)
		}
	}
}

func TestNewKey(t *testing.T) {
	a := NewKey("generated/", "Diplome.PDF")
	b := NewKey("generated", "Diplome.PDF")

	if !strings.HasPrefix(a, "generated/") || strings.HasPrefix(a, "generated//") {
		t.Errorf("NewKey() = %q, want generated/ prefix", a)
	}
	if !strings.HasSuffix(a, ".pdf") {
		t.Errorf("NewKey() = %q, want lower-case .pdf extension", a)
	}
	if a == b {
		t.Error("NewKey() returned the same key twice")
	}
	if k := NewKey("", "photo"); strings.Contains(k, "/") {
		t.Errorf("NewKey() without prefix = %q", k)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.pdf":  "application/pdf",
		"a.JPEG": "image/jpeg",
		"a.png":  "image/png",
		"a.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"a.bin":  "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
