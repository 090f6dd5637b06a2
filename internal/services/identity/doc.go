// Package identity manages creation and registration of the local identity.
//
// It enforces the local passphrase policy, generates the RSA key pair,
// creates the passphrase escrow package and registers the public half plus
// the wrapped private key with the relay. The private key and the recovery
// phrase never leave the client in the clear.
package identity
