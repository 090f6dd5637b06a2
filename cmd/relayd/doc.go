// Package main runs the veilchat relay daemon. The relay stores accounts,
// ciphertext envelopes and passphrase-sealed escrow blobs; it never holds
// key material that could open a message.
//
// HTTP API
//
//	POST /register
//	    Create an account {username, password, public_key,
//	    wrapped_private_key}. Returns a session token.
//
//	POST /login
//	    Exchange {username, password} for a session token. Unknown
//	    accounts and wrong passwords fail identically.
//
//	POST /recover
//	    Rotate the account password to new_password and return the stored
//	    escrow blob plus a fresh session. The recovery passphrase itself
//	    never reaches the relay; only its holder can open the blob.
//
//	GET /users/{username}/key
//	    Return the account's public key.
//
//	POST /messages                     (Bearer token)
//	    Store an envelope. The sender must match the session; the
//	    recipient must exist. Fills id and timestamp, bumps the
//	    recipient's unread counter and pushes over any open websocket.
//
//	GET /messages/{peer}?limit=N       (Bearer token)
//	    Return up to N envelopes exchanged with {peer}, oldest first,
//	    and reset the unread counter for that conversation.
//
//	GET /conversations                 (Bearer token)
//	    Return per-peer summaries {peer, last_timestamp, unread}, most
//	    recent first.
//
//	DELETE /messages/{id}              (Bearer token)
//	    Tombstone a message. Only a party to the message may do so;
//	    anyone else sees the same 404 as a missing id.
//
//	GET /ws                            (Bearer token)
//	    Upgrade to a websocket that receives envelopes addressed to the
//	    session's user as they arrive. Delivery is best effort; clients
//	    reconcile via GET /messages.
//
// Accounts and messages live in MongoDB; session tokens and unread
// counters live in Redis with a configurable TTL. Configuration is YAML,
// see server.Config.
package main
