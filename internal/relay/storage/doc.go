// Package storage holds the relay server's persistence: MongoDB
// repositories for accounts and message envelopes, and a Redis cache for
// session tokens and unread counters. Everything stored here is either
// public material or ciphertext the relay cannot open.
package storage
