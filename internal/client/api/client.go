// Package api is the HTTP client for the locker server. It speaks the
// flat OAuth wire format on the token endpoints and raw bytes on the
// file endpoints, and it owns the retry policy for authorized calls: a
// request that comes back 401 triggers exactly one refresh and one
// retry before the failure is surfaced as a dead session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Sentinel errors reported by the client.
var (
	// ErrUnauthorized is returned when the server rejects the caller's
	// credentials or token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionExpired is returned when a retried request still comes
	// back 401 after a refresh. The session cannot be recovered
	// silently; the user must log in again.
	ErrSessionExpired = errors.New("session expired, log in again")
	// ErrInvalidGrant is returned when the token endpoint rejects a
	// grant, for a bad password or a stale refresh token alike.
	ErrInvalidGrant = errors.New("invalid grant")
	// ErrInvalidClient is returned when the token endpoint rejects the
	// client credentials.
	ErrInvalidClient = errors.New("invalid client")
	// ErrNotFound is returned for a missing remote file.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a username is already taken.
	ErrConflict = errors.New("already exists")
)

// TokenSource supplies bearer tokens for authorized calls. The session
// manager implements it; Refresh must collapse concurrent callers into
// a single grant round trip.
type TokenSource interface {
	// AccessToken returns the current access token.
	AccessToken(ctx context.Context) (string, error)

	// Refresh exchanges the refresh token for a new pair and returns
	// the new access token. The stale value lets the source skip the
	// round trip when another caller already refreshed.
	Refresh(ctx context.Context, stale string) (string, error)
}

// TokenGrant is the token endpoint's successful response.
type TokenGrant struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	Scope            string `json:"scope,omitempty"`
}

// Entry is one item in a directory listing.
type Entry struct {
	Name       string    `json:"name"`
	IsDir      bool      `json:"isDir"`
	Size       int64     `json:"size,omitempty"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Account is the wire shape of the caller's account.
type Account struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// envelope mirrors the server's JSON response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *envelopeError  `json:"error,omitempty"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

// oauthError mirrors the token endpoint's failure shape.
type oauthError struct {
	Error string `json:"error"`
}

// Client talks to one locker server on behalf of one OAuth client.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	tokens       TokenSource
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a Client for the given server and client credentials.
func New(baseURL, clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetTokenSource attaches the source used for authorized calls. It is
// separate from New because the session manager that implements it
// needs the Client first.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// PasswordGrant exchanges user credentials for a token pair.
func (c *Client) PasswordGrant(ctx context.Context, username, password, scope string) (*TokenGrant, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"username":      {username},
		"password":      {password},
	}
	if scope != "" {
		form.Set("scope", scope)
	}

	return c.postTokenForm(ctx, "/oauth/token", form)
}

// RefreshGrant exchanges a refresh token for a new pair.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
	}

	return c.postTokenForm(ctx, "/oauth/token", form)
}

// RevokeToken asks the server to revoke the pair containing the given
// value. Unknown values succeed; revocation is idempotent.
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	form := url.Values{
		"token":         {token},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	resp, err := c.postForm(ctx, "/oauth/revoke", form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyOAuthError(resp)
	}

	return nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password, displayName string) (*Account, error) {
	body, err := json.Marshal(map[string]string{
		"username":    username,
		"password":    password,
		"displayName": displayName,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode registration")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/register", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set(headerContentType, "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "registration request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, errors.WithStack(ErrConflict)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, classifyEnvelopeError(resp)
	}

	var account Account
	if err := decodeEnvelope(resp.Body, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// Me returns the account that owns the current access token.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	resp, err := c.doAuthorized(ctx, http.MethodGet, "/account/me", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var account Account
	if err := decodeEnvelope(resp.Body, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// LogoutAll revokes every pair belonging to the caller's account.
func (c *Client) LogoutAll(ctx context.Context) error {
	resp, err := c.doAuthorized(ctx, http.MethodPost, "/account/logout-all", nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()

	return nil
}

// Upload stores content at the remote logical path.
func (c *Client) Upload(ctx context.Context, logicalPath string, content []byte) error {
	resp, err := c.doAuthorized(ctx, http.MethodPut, "/vault/files/"+escapePath(logicalPath), content, contentTypeOctetStream)
	if err != nil {
		return err
	}
	resp.Body.Close()

	return nil
}

// Download retrieves the content at the remote logical path.
func (c *Client) Download(ctx context.Context, logicalPath string) ([]byte, error) {
	resp, err := c.doAuthorized(ctx, http.MethodGet, "/vault/files/"+escapePath(logicalPath), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read download body")
	}

	return content, nil
}

// Delete removes the file at the remote logical path.
func (c *Client) Delete(ctx context.Context, logicalPath string) error {
	resp, err := c.doAuthorized(ctx, http.MethodDelete, "/vault/files/"+escapePath(logicalPath), nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()

	return nil
}

// List enumerates the entries one level below dir. An empty dir lists
// the root.
func (c *Client) List(ctx context.Context, dir string) ([]Entry, error) {
	path := "/vault/list"
	if dir != "" {
		path += "?dir=" + url.QueryEscape(dir)
	}

	resp, err := c.doAuthorized(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []Entry
	if err := decodeEnvelope(resp.Body, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// doAuthorized sends a bearer-authorized request with a fixed retry
// budget: on 401 it refreshes once and retries once. A 401 on the
// retried request means the session is gone for good.
func (c *Client) doAuthorized(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	if c.tokens == nil {
		return nil, errors.WithStack(ErrUnauthorized)
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "no access token available")
	}

	resp, err := c.send(ctx, method, path, body, contentType, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return c.checkStatus(resp)
	}
	resp.Body.Close()

	// One refresh, one retry. No loops.
	token, err = c.tokens.Refresh(ctx, token)
	if err != nil {
		return nil, errors.Wrap(ErrSessionExpired, err.Error())
	}

	resp, err = c.send(ctx, method, path, body, contentType, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()

		return nil, errors.WithStack(ErrSessionExpired)
	}

	return c.checkStatus(resp)
}

// send issues a single HTTP request carrying the bearer token.
func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}

	return resp, nil
}

// checkStatus converts non-2xx responses into sentinel errors.
func (c *Client) checkStatus(resp *http.Response) (*http.Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.WithStack(ErrNotFound)
	}

	return nil, classifyEnvelopeError(resp)
}

// postTokenForm posts to a token endpoint and decodes the flat grant
// response.
func (c *Client) postTokenForm(ctx context.Context, path string, form url.Values) (*TokenGrant, error) {
	resp, err := c.postForm(ctx, path, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyOAuthError(resp)
	}

	var grant TokenGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, errors.Wrap(err, "failed to decode token response")
	}

	return &grant, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set(headerContentType, "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "token request failed")
	}

	return resp, nil
}

// classifyOAuthError maps a failed token-endpoint response onto the
// grant sentinels.
func classifyOAuthError(resp *http.Response) error {
	var oe oauthError
	_ = json.NewDecoder(resp.Body).Decode(&oe)

	switch oe.Error {
	case "invalid_client":
		return errors.WithStack(ErrInvalidClient)
	case "invalid_grant":
		return errors.WithStack(ErrInvalidGrant)
	default:
		return errors.Errorf("token endpoint returned %d (%s)", resp.StatusCode, oe.Error)
	}
}

// classifyEnvelopeError turns a failed envelope response into an error
// carrying the server's business code.
func classifyEnvelopeError(resp *http.Response) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Error == nil {
		return errors.Errorf("server returned %d", resp.StatusCode)
	}

	return errors.Errorf("server returned %d: %s (%s)", resp.StatusCode, env.Message, env.Error.Code)
}

// decodeEnvelope unwraps the data field of an envelope response.
func decodeEnvelope(body io.Reader, out any) error {
	var env envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	if env.Data == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "failed to decode response data")
	}

	return nil
}

// escapePath escapes each segment of a logical path while keeping the
// separators.
func escapePath(logicalPath string) string {
	segments := strings.Split(logicalPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return strings.Join(segments, "/")
}

const (
	headerContentType      = "Content-Type"
	contentTypeOctetStream = "application/octet-stream"
)
