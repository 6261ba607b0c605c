package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPEM_Inline(t *testing.T) {
	pemBytes, err := LoadPEM(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if !strings.Contains(string(pemBytes), "-----BEGIN") {
		t.Error("LoadPEM did not return PEM content")
	}
}

func TestLoadPEM_LiteralNewlines(t *testing.T) {
	escaped := strings.ReplaceAll(testPublicKeyPEM, "\n", `\n`)
	pub, err := ParsePublicKey(escaped)
	if err != nil {
		t.Fatalf("ParsePublicKey with escaped newlines: %v", err)
	}
	if KeyAlg(pub) != "RS256" {
		t.Errorf("KeyAlg = %q, want RS256", KeyAlg(pub))
	}
}

func TestLoadPEM_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public.pem")
	if err := os.WriteFile(path, []byte(testPublicKeyPEM), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ParsePublicKey(path); err != nil {
		t.Fatalf("ParsePublicKey(file): %v", err)
	}
}

func TestLoadPEM_Errors(t *testing.T) {
	if _, err := LoadPEM("   "); err != ErrInvalidKey {
		t.Errorf("LoadPEM(blank) err = %v, want ErrInvalidKey", err)
	}
	if _, err := LoadPEM(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("LoadPEM(missing file) should fail")
	}
	if _, err := ParsePrivateKey("-----BEGIN NOTHING-----"); err != ErrInvalidKey {
		t.Errorf("ParsePrivateKey(garbage) err = %v, want ErrInvalidKey", err)
	}
	if _, err := ParsePublicKey(testPrivateKeyPEM); err != ErrInvalidKey {
		t.Errorf("ParsePublicKey(private PEM) err = %v, want ErrInvalidKey", err)
	}
}

func TestGenerateKeyPair(t *testing.T) {
	signer, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if KeyAlg(pub) != "RS256" {
		t.Errorf("KeyAlg = %q, want RS256", KeyAlg(pub))
	}
	p := NewTokenProvider(signer, pub, "iss", "aud", 0, 0)
	if p == nil {
		t.Fatal("NewTokenProvider returned nil")
	}
}

func TestKeyAlg_Unknown(t *testing.T) {
	if got := KeyAlg("not a key"); got != "" {
		t.Errorf("KeyAlg(string) = %q, want empty", got)
	}
}
