package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"veilchat/internal/domain"
	"veilchat/internal/relay/storage"
)

// userStore is the account persistence the handlers need.
type userStore interface {
	Create(ctx context.Context, u *storage.User) error
	GetByUsername(ctx context.Context, username string) (*storage.User, error)
	UpdatePasswordHash(ctx context.Context, username string, hash []byte) error
}

// messageStore is the envelope persistence the handlers need.
type messageStore interface {
	Insert(ctx context.Context, m *storage.Message) (string, error)
	ListBetween(ctx context.Context, a, b string, limit int64) ([]*storage.Message, error)
	ListForUser(ctx context.Context, username string) ([]*storage.Message, error)
	Tombstone(ctx context.Context, id, requester string) error
}

// sessionCache is the token and unread-counter cache the handlers need.
type sessionCache interface {
	Issue(ctx context.Context, username string) (string, error)
	Lookup(ctx context.Context, token string) (string, error)
	IncrUnread(ctx context.Context, to, from string) error
	ResetUnread(ctx context.Context, me, peer string) error
	Unread(ctx context.Context, me, peer string) (int64, error)
}

// Server wires the relay's HTTP handlers to their stores.
type Server struct {
	log      *zap.Logger
	users    userStore
	messages messageStore
	sessions sessionCache
	hub      *Hub
}

// New returns a Server over the given stores.
func New(log *zap.Logger, users userStore, messages messageStore, sessions sessionCache) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:      log,
		users:    users,
		messages: messages,
		sessions: sessions,
		hub:      newHub(log),
	}
}

// Router returns the relay's route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/recover", s.handleRecover).Methods(http.MethodPost)
	r.HandleFunc("/users/{username}/key", s.handleGetKey).Methods(http.MethodGet)

	auth := r.PathPrefix("/").Subrouter()
	auth.Use(s.requireAuth)
	auth.HandleFunc("/messages", s.handlePostMessage).Methods(http.MethodPost)
	auth.HandleFunc("/messages/{peer}", s.handleGetMessages).Methods(http.MethodGet)
	auth.HandleFunc("/messages/{id}", s.handleDeleteMessage).Methods(http.MethodDelete)
	auth.HandleFunc("/conversations", s.handleConversations).Methods(http.MethodGet)
	auth.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	return r
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.PublicKey == "" || req.WrappedPrivateKey == "" {
		httpError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	existing, err := s.users.GetByUsername(r.Context(), req.Username.String())
	if err != nil {
		s.internalError(w, "register lookup", err)
		return
	}
	if existing != nil {
		httpError(w, http.StatusConflict, "username taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, "register hash", err)
		return
	}
	user := &storage.User{
		Username:          req.Username.String(),
		PasswordHash:      hash,
		PublicKey:         req.PublicKey,
		WrappedPrivateKey: req.WrappedPrivateKey,
		CreatedAt:         time.Now().Unix(),
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		s.internalError(w, "register create", err)
		return
	}

	token, err := s.sessions.Issue(r.Context(), user.Username)
	if err != nil {
		s.internalError(w, "register session", err)
		return
	}
	s.log.Info("account registered", zap.String("username", user.Username))
	writeJSON(w, http.StatusCreated, domain.Session{Username: req.Username, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "bad request body")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		s.internalError(w, "login lookup", err)
		return
	}
	// Same failure for unknown user and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
		httpError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.sessions.Issue(r.Context(), user.Username)
	if err != nil {
		s.internalError(w, "login session", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Session{Username: domain.Username(user.Username), Token: token})
}

// handleRecover hands back the escrow blob and rotates the account
// password. Possession of the recovery passphrase is proven client-side;
// the relay only ever sees the sealed blob.
func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if req.Username == "" || req.NewPassword == "" {
		httpError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		s.internalError(w, "recover lookup", err)
		return
	}
	if user == nil {
		httpError(w, http.StatusNotFound, "no such account")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, "recover hash", err)
		return
	}
	if err := s.users.UpdatePasswordHash(r.Context(), user.Username, hash); err != nil {
		s.internalError(w, "recover update", err)
		return
	}

	token, err := s.sessions.Issue(r.Context(), user.Username)
	if err != nil {
		s.internalError(w, "recover session", err)
		return
	}
	s.log.Info("account recovery issued", zap.String("username", user.Username))
	writeJSON(w, http.StatusOK, domain.RecoverResponse{
		WrappedPrivateKey: user.WrappedPrivateKey,
		Account: domain.Account{
			Username:  domain.Username(user.Username),
			PublicKey: user.PublicKey,
			CreatedAt: user.CreatedAt,
		},
		Token: token,
	})
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	user, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		s.internalError(w, "key lookup", err)
		return
	}
	if user == nil {
		httpError(w, http.StatusNotFound, "no such account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": user.PublicKey})
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	me := usernameFrom(r.Context())

	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		httpError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if env.From.String() != me {
		httpError(w, http.StatusForbidden, "sender mismatch")
		return
	}
	if !env.Kind.Valid() || env.Ciphertext == "" || env.SenderKey == "" || env.RecipientKey == "" || env.Nonce == "" {
		httpError(w, http.StatusBadRequest, "malformed envelope")
		return
	}

	recipient, err := s.users.GetByUsername(r.Context(), env.To.String())
	if err != nil {
		s.internalError(w, "message recipient lookup", err)
		return
	}
	if recipient == nil {
		httpError(w, http.StatusNotFound, "no such recipient")
		return
	}

	msg := &storage.Message{
		From:         env.From.String(),
		To:           env.To.String(),
		Kind:         string(env.Kind),
		Ciphertext:   env.Ciphertext,
		SenderKey:    env.SenderKey,
		RecipientKey: env.RecipientKey,
		Nonce:        env.Nonce,
		Timestamp:    env.Timestamp,
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	id, err := s.messages.Insert(r.Context(), msg)
	if err != nil {
		s.internalError(w, "message insert", err)
		return
	}
	if err := s.sessions.IncrUnread(r.Context(), msg.To, msg.From); err != nil {
		s.log.Warn("unread counter", zap.Error(err))
	}

	env.ID = id
	env.Timestamp = msg.Timestamp
	s.hub.Notify(msg.To, env)
	writeJSON(w, http.StatusCreated, env)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	me := usernameFrom(r.Context())
	peer := mux.Vars(r)["peer"]

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			httpError(w, http.StatusBadRequest, "bad limit")
			return
		}
		limit = n
	}

	msgs, err := s.messages.ListBetween(r.Context(), me, peer, limit)
	if err != nil {
		s.internalError(w, "message list", err)
		return
	}
	if err := s.sessions.ResetUnread(r.Context(), me, peer); err != nil {
		s.log.Warn("unread counter", zap.Error(err))
	}

	out := make([]domain.Envelope, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, envelopeFrom(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	me := usernameFrom(r.Context())

	msgs, err := s.messages.ListForUser(r.Context(), me)
	if err != nil {
		s.internalError(w, "conversation list", err)
		return
	}

	last := map[string]int64{}
	for _, m := range msgs {
		peer := m.From
		if peer == me {
			peer = m.To
		}
		if m.Timestamp > last[peer] {
			last[peer] = m.Timestamp
		}
	}

	out := make([]domain.Conversation, 0, len(last))
	for peer, ts := range last {
		unread, err := s.sessions.Unread(r.Context(), me, peer)
		if err != nil {
			s.log.Warn("unread counter", zap.Error(err))
		}
		out = append(out, domain.Conversation{
			Peer:          domain.Username(peer),
			LastTimestamp: ts,
			Unread:        unread,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastTimestamp > out[j].LastTimestamp })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	me := usernameFrom(r.Context())
	id := mux.Vars(r)["id"]

	err := s.messages.Tombstone(r.Context(), id, me)
	if err == storage.ErrNotFound {
		httpError(w, http.StatusNotFound, "message not found")
		return
	}
	if err != nil {
		s.internalError(w, "message delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func envelopeFrom(m *storage.Message) domain.Envelope {
	return domain.Envelope{
		ID:           m.ID.Hex(),
		From:         domain.Username(m.From),
		To:           domain.Username(m.To),
		Kind:         domain.EnvelopeKind(m.Kind),
		Ciphertext:   m.Ciphertext,
		SenderKey:    m.SenderKey,
		RecipientKey: m.RecipientKey,
		Nonce:        m.Nonce,
		Timestamp:    m.Timestamp,
	}
}

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	s.log.Error(what, zap.Error(err))
	httpError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
