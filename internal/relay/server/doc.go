// Package server implements the relay's HTTP API. The relay is an
// honest-but-curious store and forward: it authenticates accounts,
// stores ciphertext envelopes and escrow blobs, and pushes delivery
// notifications over websockets, but holds no key material that could
// open any message.
package server
