package domain

// WalletState is the last-known wallet snapshot. There is exactly one per
// running client; it is refreshed wholesale, never merged.
type WalletState struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}
