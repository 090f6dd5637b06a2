// Package message sends and receives encrypted envelopes over the relay.
//
// Sending encrypts the payload once for both parties (dual wrap) so the
// sender can re-read their own history. Receiving picks the wrapped key
// matching the local role; an envelope that fails to open is returned with
// its error kind so callers can render a placeholder without losing the
// distinction between "cannot decrypt" and "message absent".
package message
