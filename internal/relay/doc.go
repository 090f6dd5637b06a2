// Package relay implements the HTTP client for the veilchat relay server.
//
// The relay is an honest-but-curious intermediary: it stores accounts,
// public keys, passphrase-wrapped escrow blobs and encrypted envelopes,
// and can decrypt none of them. This client is the only way the rest of
// the app talks to it.
package relay
