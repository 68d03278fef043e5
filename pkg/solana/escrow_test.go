package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

const (
	testProgramID = "8jR5GeNzeweq35Uo84kGP3v1NcBaZWH5u62k7PxN4T2y"
	testBuyer     = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
)

func TestDeriveEscrowAddressIsDeterministic(t *testing.T) {
	first, firstBump, err := DeriveEscrowAddressBase58(testProgramID, testBuyer, 42)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	second, secondBump, err := DeriveEscrowAddressBase58(testProgramID, testBuyer, 42)
	if err != nil {
		t.Fatalf("derive again: %v", err)
	}
	if first != second || firstBump != secondBump {
		t.Fatalf("derivation not stable: %s/%d vs %s/%d", first, firstBump, second, secondBump)
	}
}

func TestDeriveEscrowAddressVariesWithInputs(t *testing.T) {
	base, _, err := DeriveEscrowAddressBase58(testProgramID, testBuyer, 1)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	otherOrder, _, err := DeriveEscrowAddressBase58(testProgramID, testBuyer, 2)
	if err != nil {
		t.Fatalf("derive other order: %v", err)
	}
	if base == otherOrder {
		t.Fatal("different order ids must derive different addresses")
	}

	otherBuyer, _, err := DeriveEscrowAddressBase58(testProgramID, testProgramID, 1)
	if err != nil {
		t.Fatalf("derive other buyer: %v", err)
	}
	if base == otherBuyer {
		t.Fatal("different buyers must derive different addresses")
	}
}

func TestDeriveEscrowAddressIsOffCurve(t *testing.T) {
	addr, _, err := DeriveEscrowAddressBase58(testProgramID, testBuyer, 7)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		t.Fatalf("parse derived address: %v", err)
	}
	if pub.IsOnCurve() {
		t.Fatal("derived address must not lie on the ed25519 curve")
	}
}

func TestDeriveEscrowAddressRejectsBadKeys(t *testing.T) {
	if _, _, err := DeriveEscrowAddressBase58("not-a-key", testBuyer, 1); err == nil {
		t.Fatal("expected error for invalid program id")
	}
	if _, _, err := DeriveEscrowAddressBase58(testProgramID, "not-a-key", 1); err == nil {
		t.Fatal("expected error for invalid buyer wallet")
	}
}

func TestIsValidWallet(t *testing.T) {
	if !IsValidWallet(testBuyer) {
		t.Fatal("expected valid wallet")
	}
	if IsValidWallet("zz") {
		t.Fatal("expected invalid wallet")
	}
}
