package keychain

import (
	"testing"

	"github.com/99designs/keyring"
)

func TestJWTLifecycle(t *testing.T) {
	m := NewManagerWithRing(keyring.NewArrayKeyring(nil))

	got, err := m.LoadJWT()
	if err != nil {
		t.Fatalf("LoadJWT() on empty ring error = %v", err)
	}
	if got != "" {
		t.Errorf("LoadJWT() = %q, want empty", got)
	}

	if err := m.SaveJWT("eyJhbGciOi.payload.sig"); err != nil {
		t.Fatalf("SaveJWT() error = %v", err)
	}
	got, err = m.LoadJWT()
	if err != nil {
		t.Fatalf("LoadJWT() error = %v", err)
	}
	if got != "eyJhbGciOi.payload.sig" {
		t.Errorf("LoadJWT() = %q, want stored token", got)
	}

	if err := m.ClearJWT(); err != nil {
		t.Fatalf("ClearJWT() error = %v", err)
	}
	if err := m.ClearJWT(); err != nil {
		t.Fatalf("second ClearJWT() error = %v", err)
	}
	if got, _ := m.LoadJWT(); got != "" {
		t.Errorf("LoadJWT() after clear = %q, want empty", got)
	}
}

func TestSaveJWTRejectsEmpty(t *testing.T) {
	m := NewManagerWithRing(keyring.NewArrayKeyring(nil))
	if err := m.SaveJWT(""); err == nil {
		t.Error("SaveJWT(\"\") should fail")
	}
}
