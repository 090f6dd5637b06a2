package domain

// Username identifies a relay-registered account.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short, human-comparable digest of a public key.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// KeyPair holds an encoded RSA key pair. Both fields are base64 text
// (PKIX DER for the public half, PKCS#8 DER for the private half).
// The private key never crosses the relay boundary in the clear.
type KeyPair struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Identity is the locally stored account state: who you are on the relay
// plus the key pair that decrypts your history.
type Identity struct {
	Username Username `json:"username"`
	Keys     KeyPair  `json:"keys"`
}

// EnvelopeKind discriminates what an envelope's plaintext contains.
type EnvelopeKind string

const (
	// KindText marks a UTF-8 text payload.
	KindText EnvelopeKind = "text"
	// KindImage marks a binary image payload.
	KindImage EnvelopeKind = "image"
)

// Valid reports whether k is a known kind.
func (k EnvelopeKind) Valid() bool {
	switch k {
	case KindText, KindImage:
		return true
	}
	return false
}

// Envelope is the wire-format message posted to and fetched from the relay.
//
// Ciphertext was produced by one AES-256-GCM seal under one content key and
// Nonce. SenderKey and RecipientKey both unwrap to that same content key,
// one under the sender's public key and one under the recipient's, so either
// party can re-read the message with only their own private key. All binary
// fields travel as base64 text.
type Envelope struct {
	ID           string       `json:"id,omitempty"`
	From         Username     `json:"from"`
	To           Username     `json:"to"`
	Kind         EnvelopeKind `json:"kind"`
	Ciphertext   string       `json:"ciphertext"`
	SenderKey    string       `json:"sender_key"`
	RecipientKey string       `json:"recipient_key"`
	Nonce        string       `json:"nonce"`
	Timestamp    int64        `json:"timestamp"`
}

// DecryptedMessage is what MessageService.Receive returns for one envelope.
// If DecryptErr is non-nil the envelope could not be opened and Plaintext is
// empty; callers render a neutral placeholder but can still observe the
// failure kind.
type DecryptedMessage struct {
	From       Username
	To         Username
	Kind       EnvelopeKind
	Plaintext  []byte
	Timestamp  int64
	DecryptErr error
}

// Account is the relay's public view of a user.
type Account struct {
	Username  Username `json:"username"`
	PublicKey string   `json:"public_key"`
	CreatedAt int64    `json:"created_at"`
}

// Conversation summarises message history with one peer.
type Conversation struct {
	Peer          Username `json:"peer"`
	LastTimestamp int64    `json:"last_timestamp"`
	Unread        int64    `json:"unread"`
}

// Session is an authenticated relay session.
type Session struct {
	Username Username `json:"username"`
	Token    string   `json:"token"`
}

// RegisterRequest creates an account. WrappedPrivateKey is the passphrase
// sealed escrow blob; the relay stores it but can never open it.
type RegisterRequest struct {
	Username          Username `json:"username"`
	Password          string   `json:"password"`
	PublicKey         string   `json:"public_key"`
	WrappedPrivateKey string   `json:"wrapped_private_key"`
}

// RecoverResponse is returned by the relay's recovery-initiation endpoint.
// The recovery passphrase itself is never sent to the relay; the caller
// opens WrappedPrivateKey locally.
type RecoverResponse struct {
	WrappedPrivateKey string  `json:"wrapped_private_key"`
	Account           Account `json:"user"`
	Token             string  `json:"session_token"`
}
