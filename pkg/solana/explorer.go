package solana

import "fmt"

// ExplorerTxURL returns the Solana explorer link for a transaction reference.
func ExplorerTxURL(cluster, txRef string) string {
	if cluster == "" || cluster == "mainnet-beta" {
		return fmt.Sprintf("https://explorer.solana.com/tx/%s", txRef)
	}
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", txRef, cluster)
}

// ExplorerAccountURL returns the Solana explorer link for an account address.
func ExplorerAccountURL(cluster, address string) string {
	if cluster == "" || cluster == "mainnet-beta" {
		return fmt.Sprintf("https://explorer.solana.com/address/%s", address)
	}
	return fmt.Sprintf("https://explorer.solana.com/address/%s?cluster=%s", address, cluster)
}
