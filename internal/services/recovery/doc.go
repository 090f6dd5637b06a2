// Package recovery drives the account recovery flow on a new device.
//
// The relay hands back the escrowed wrapped private key after a password
// reset; the recovery passphrase supplied by the user out of band opens it
// locally. The passphrase is never sent to the relay.
package recovery
