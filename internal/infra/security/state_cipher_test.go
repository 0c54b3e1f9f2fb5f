package security

import (
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestStateCipher_RoundTrip(t *testing.T) {
	c, err := NewStateCipher(testKey)
	if err != nil {
		t.Fatalf("NewStateCipher failed: %v", err)
	}

	plain := []byte(`{"stage":"awaiting_age","registration":{"first_name":"Вася"}}`)
	sealed, err := c.Seal(plain)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if strings.Contains(sealed, "Вася") {
		t.Error("sealed output leaks plaintext")
	}

	opened, err := c.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(opened) != string(plain) {
		t.Errorf("round trip mismatch: %s", opened)
	}
}

func TestStateCipher_RejectsTamperedCiphertext(t *testing.T) {
	c, _ := NewStateCipher(testKey)
	sealed, err := c.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	tampered := sealed[:len(sealed)-2] + "xx"
	if _, err := c.Open(tampered); err == nil {
		t.Fatal("expected tampered ciphertext to be rejected")
	}
}

func TestStateCipher_RejectsBadKeyLength(t *testing.T) {
	if _, err := NewStateCipher("short"); err == nil {
		t.Fatal("expected a key length error")
	}
}

func TestStateCipher_NoncesDiffer(t *testing.T) {
	c, _ := NewStateCipher(testKey)
	a, _ := c.Seal([]byte("same"))
	b, _ := c.Seal([]byte("same"))
	if a == b {
		t.Error("two seals of the same plaintext produced identical output")
	}
}
