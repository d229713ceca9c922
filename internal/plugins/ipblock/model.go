// Package ipblock maintains the IP deny list. Blocks are checked at the very
// start of upload intake, can be temporary or permanent, and are also created
// automatically when a client accumulates content violations.
package ipblock

import "time"

// Block is one deny-list entry. A nil ExpiresAt means the block is permanent.
type Block struct {
	IP        string     `json:"ip"`
	Reason    string     `json:"reason"`
	BlockedAt time.Time  `json:"blockedAt"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// Expired reports whether a temporary block has lapsed.
func (b *Block) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}
