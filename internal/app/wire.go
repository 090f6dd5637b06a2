package app

import (
	"net/http"

	"veilchat/internal/domain"
	"veilchat/internal/relay"
	identitysvc "veilchat/internal/services/identity"
	messagesvc "veilchat/internal/services/message"
	recoverysvc "veilchat/internal/services/recovery"
	"veilchat/internal/store"
)

// Wire bundles all stores, services and clients for the CLI.
type Wire struct {
	Identities *identitysvc.Service
	Messages   *messagesvc.Service
	Recovery   *recoverysvc.Service
	Relay      domain.RelayClient
	HTTP       *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	identityStore := store.NewIdentityFileStore(cfg.Home)
	sessionStore := store.NewSessionFileStore(cfg.Home)

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	rc := relay.NewClient(cfg.RelayURL, httpClient)

	return &Wire{
		Identities: identitysvc.New(identityStore, sessionStore, rc),
		Messages:   messagesvc.New(identityStore, sessionStore, rc),
		Recovery:   recoverysvc.New(identityStore, sessionStore, rc),
		Relay:      rc,
		HTTP:       httpClient,
	}, nil
}
