// Package commands defines the veilchat CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - register       Create an account, print the fingerprint and the
//     one-time recovery phrase
//   - login          Authenticate and store a session token
//   - send           Encrypt and send a text message or an image
//   - recv           Fetch and decrypt the conversation with a peer
//   - watch          Print incoming messages live as they arrive
//   - conversations  List conversation summaries with unread counts
//   - fingerprint    Print your fingerprint, or a peer's for comparison
//   - recover        Rebuild the account on this device from the recovery
//     phrase
//   - check-phrase   Structurally validate a recovery phrase offline
//
// # Implementation
//
// The root command builds a dependency graph (stores, services, relay
// client) before any subcommand runs, so handlers can use a shared app
// context with timeouts and connection pooling.
package commands
