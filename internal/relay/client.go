package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"veilchat/internal/domain"
)

// Client talks to the relay server over HTTP with JSON bodies.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a relay client for the given base URL. httpClient may
// be nil to use http.DefaultClient.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient}
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (domain.Session, error) {
	var out domain.Session
	if err := c.post(ctx, "/register", "", req, &out); err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, username domain.Username, password string) (domain.Session, error) {
	in := struct {
		Username domain.Username `json:"username"`
		Password string          `json:"password"`
	}{username, password}

	var out domain.Session
	if err := c.post(ctx, "/login", "", in, &out); err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

func (c *Client) RecoverAccount(ctx context.Context, username domain.Username, newPassword string) (domain.RecoverResponse, error) {
	in := struct {
		Username    domain.Username `json:"username"`
		NewPassword string          `json:"new_password"`
	}{username, newPassword}

	var out domain.RecoverResponse
	if err := c.post(ctx, "/recover", "", in, &out); err != nil {
		return domain.RecoverResponse{}, err
	}
	return out, nil
}

func (c *Client) FetchPublicKey(ctx context.Context, username domain.Username) (string, error) {
	var out struct {
		PublicKey string `json:"public_key"`
	}
	if err := c.get(ctx, "/users/"+url.PathEscape(username.String())+"/key", "", &out); err != nil {
		return "", err
	}
	return out.PublicKey, nil
}

func (c *Client) SendEnvelope(ctx context.Context, token string, env domain.Envelope) error {
	return c.post(ctx, "/messages", token, env, nil)
}

func (c *Client) FetchEnvelopes(ctx context.Context, token string, peer domain.Username, limit int) ([]domain.Envelope, error) {
	path := "/messages/" + url.PathEscape(peer.String())
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.Envelope
	if err := c.get(ctx, path, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Conversations(ctx context.Context, token string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.get(ctx, "/conversations", token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteEnvelope(ctx context.Context, token string, id string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete, c.base+"/messages/"+url.PathEscape(id), nil,
	)
	if err != nil {
		return err
	}
	return c.do(req, "", token, nil)
}

// Subscribe opens a websocket that yields envelopes addressed to the
// session's user as the relay receives them. The channel closes when the
// connection drops or ctx is cancelled; delivery is best effort and
// callers reconcile with FetchEnvelopes.
func (c *Client) Subscribe(ctx context.Context, token string) (<-chan domain.Envelope, error) {
	wsURL := strings.Replace(c.base, "http", "ws", 1) + "/ws"
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("relay subscribe: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	ch := make(chan domain.Envelope)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(ch)
		defer conn.Close()
		for {
			var env domain.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			select {
			case ch <- env:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (c *Client) post(ctx context.Context, path, token string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, buf)
	if err != nil {
		return err
	}
	return c.do(req, "application/json", token, out)
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, "", token, out)
}

func (c *Client) do(req *http.Request, contentType, token string, out any) error {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay %s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Compile-time assertion that Client implements domain.RelayClient.
var _ domain.RelayClient = (*Client)(nil)
