package fieldcrypt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func TestRoundTrip(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, plaintext := range []string{"", "vet visit 2026-03-01", "unicode: caña brava 🐄"} {
		sealed, err := c.EncryptString(plaintext)
		if err != nil {
			t.Fatalf("encrypt %q: %v", plaintext, err)
		}
		opened, err := c.DecryptString(sealed)
		if err != nil {
			t.Fatalf("decrypt %q: %v", plaintext, err)
		}
		if opened != plaintext {
			t.Errorf("round trip: got %q, want %q", opened, plaintext)
		}
	}
}

func TestEncryptIsNondeterministic(t *testing.T) {
	c, _ := New(testKey())
	a, _ := c.EncryptString("same value")
	b, _ := c.EncryptString("same value")
	if a == b {
		t.Error("two encryptions of the same value must differ")
	}
}

func TestRejectsBadKeyLength(t *testing.T) {
	if _, err := New([]byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}

func TestNewFromBase64(t *testing.T) {
	c, err := NewFromBase64(base64.StdEncoding.EncodeToString(testKey()))
	if err != nil {
		t.Fatalf("NewFromBase64: %v", err)
	}
	sealed, _ := c.EncryptString("hello")
	if opened, _ := c.DecryptString(sealed); opened != "hello" {
		t.Error("round trip through base64 key failed")
	}

	if _, err := NewFromBase64("not base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	c, _ := New(testKey())
	sealed, _ := c.EncryptString("integrity matters")

	blob, _ := base64.StdEncoding.DecodeString(sealed)
	blob[len(blob)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(blob)

	if _, err := c.DecryptString(tampered); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext, got %v", err)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	c, _ := New(testKey())
	for _, bad := range []string{"", "AAAA", "%%%not-base64%%%"} {
		if _, err := c.DecryptString(bad); !errors.Is(err, ErrInvalidCiphertext) {
			t.Errorf("input %q: expected ErrInvalidCiphertext, got %v", bad, err)
		}
	}
}

func TestWrongKeyFails(t *testing.T) {
	c1, _ := New(testKey())
	c2, _ := New(bytes.Repeat([]byte{0x24}, KeySize))

	sealed, _ := c1.EncryptString("secret")
	if _, err := c2.DecryptString(sealed); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext under wrong key, got %v", err)
	}
}
