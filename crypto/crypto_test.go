package crypto

import "testing"

func TestHashEmail(t *testing.T) {
	// Known SHA-256 vector: echo -n 'alice@example.com' | sha256sum
	got := HashEmail("alice@example.com")
	want := "ff8d9819fc0e12bf0d24892e45987e249a28dce836a85cad60e28eaaa8c6d976"
	if got != want {
		t.Fatalf("HashEmail mismatch: got %s want %s", got, want)
	}
}

func TestHashEmailCaseSensitive(t *testing.T) {
	if HashEmail("Alice@example.com") == HashEmail("alice@example.com") {
		t.Fatal("expected distinct hashes for distinct inputs")
	}
}

func TestEqualHashes(t *testing.T) {
	h := HashEmail("bob@example.com")
	if !EqualHashes(h, h) {
		t.Fatal("identical hashes reported unequal")
	}
	if EqualHashes(h, HashEmail("carol@example.com")) {
		t.Fatal("distinct hashes reported equal")
	}
	if EqualHashes(h, h[:32]) {
		t.Fatal("length mismatch reported equal")
	}
}
