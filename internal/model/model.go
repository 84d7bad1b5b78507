// Package model defines domain entities used by services and repositories.
package model

import "time"

// Token is a stored bearer credential. The plaintext value is never persisted;
// EncToken holds its ciphertext under the current secret key.
type Token struct {
	ID          int64
	EncToken    string
	HourlyLimit int        // requests permitted per sliding hour, > 0 unless disabled
	CreatedAt   time.Time  // reset on rotation
	LastUsed    *time.Time // nil until the first successful relay
}

// DefaultHourlyLimit is applied when a token is created without an explicit limit.
const DefaultHourlyLimit = 5

// ProviderConfig is a named provider credential set. Both credential fields
// are ciphertext.
type ProviderConfig struct {
	ID          int64
	Name        string // unique, human-readable
	EncAppToken string
	EncUserKey  string
	UpdatedAt   time.Time
}

// AdminPassword is one row of admin password history; the most recently
// updated row is authoritative.
type AdminPassword struct {
	ID          int64
	EncPassword string
	UpdatedAt   time.Time
}

// Delivery is one append-only record of a relay attempt that reached dispatch.
// Outcome is the provider's HTTP status in decimal string form, or
// OutcomeError when the dispatch itself failed.
type Delivery struct {
	ID        int64
	TokenID   int64
	Message   string
	Outcome   string
	CreatedAt time.Time
}

// OutcomeError marks a delivery whose dispatch failed before the provider answered.
const OutcomeError = "error"

// DeliveryFilter selects delivery records for the audit listing.
// Zero values mean "no filter"; results are newest-first.
type DeliveryFilter struct {
	TokenID int64  // 0 = any token
	Outcome string // "" = any outcome
	Search  string // substring match on message text
	Limit   int    // page size, 0 = repository default
	Offset  int
}
