// Package solana derives marketplace escrow account addresses.
//
// The escrow program stores one account per (buyer, order) pair at a program
// derived address seeded with ["sol-escrow", buyer pubkey, order id as u64
// little-endian]. Deriving the address here lets the backend, the client
// signer and the on-chain program agree on it without any lookup.
package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const escrowSeedPrefix = "sol-escrow"

// DeriveEscrowAddress computes the deterministic escrow account address for
// the given program, buyer and order id. Identical inputs always yield an
// identical address and bump.
func DeriveEscrowAddress(programID, buyer solana.PublicKey, orderID uint64) (solana.PublicKey, uint8, error) {
	var orderSeed [8]byte
	binary.LittleEndian.PutUint64(orderSeed[:], orderID)

	seeds := [][]byte{
		[]byte(escrowSeedPrefix),
		buyer.Bytes(),
		orderSeed[:],
	}

	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("deriving escrow address: %w", err)
	}
	return addr, bump, nil
}

// DeriveEscrowAddressBase58 is DeriveEscrowAddress over base58-encoded keys,
// which is how wallets arrive at the HTTP boundary.
func DeriveEscrowAddressBase58(programID, buyerWallet string, orderID uint64) (string, uint8, error) {
	program, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return "", 0, fmt.Errorf("invalid program id: %w", err)
	}
	buyer, err := solana.PublicKeyFromBase58(buyerWallet)
	if err != nil {
		return "", 0, fmt.Errorf("invalid buyer wallet: %w", err)
	}
	addr, bump, err := DeriveEscrowAddress(program, buyer, orderID)
	if err != nil {
		return "", 0, err
	}
	return addr.String(), bump, nil
}

// IsValidWallet reports whether the value parses as a Solana public key.
func IsValidWallet(wallet string) bool {
	_, err := solana.PublicKeyFromBase58(wallet)
	return err == nil
}
