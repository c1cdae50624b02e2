package crypto

import (
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	var raw [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr := NewAddress(MLNPrefix, raw)
	encoded := addr.String()
	if !strings.HasPrefix(encoded, "mln1") {
		t.Fatalf("encoded address missing prefix: %q", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bytes() != raw {
		t.Fatalf("round trip mismatch: got %x, want %x", decoded.Bytes(), raw)
	}
	if decoded.Prefix() != MLNPrefix {
		t.Fatalf("prefix: got %q, want %q", decoded.Prefix(), MLNPrefix)
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-an-address"); err == nil {
		t.Fatal("expected error for malformed input")
	}
	if _, err := DecodeAddress(""); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDeriveModuleAddressDeterministic(t *testing.T) {
	a := DeriveModuleAddress("microloan/treasury")
	b := DeriveModuleAddress("microloan/treasury")
	if a != b {
		t.Fatal("module address derivation is not deterministic")
	}
	c := DeriveModuleAddress("microloan/collateral")
	if a == c {
		t.Fatal("distinct module names must derive distinct addresses")
	}
}

func TestKeyAddressDerivation(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	if addr.Prefix() != MLNPrefix {
		t.Fatalf("prefix: got %q, want %q", addr.Prefix(), MLNPrefix)
	}
	// The bech32 form must decode back to the same payload.
	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bytes() != addr.Bytes() {
		t.Fatal("key-derived address does not round trip")
	}
}
