package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// User is the wire representation of the authenticated account.
type User struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// tokenPayload mirrors the server's token envelope.
type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type"`
}

// authPayload mirrors the register and login response bodies.
type authPayload struct {
	User  User         `json:"user"`
	Token tokenPayload `json:"token"`
}

// Credentials is the persisted session state: the tokens plus enough
// identity to show who is signed in before any server round trip.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       uint   `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Username     string `json:"username,omitempty"`
}

// CredentialStore persists session credentials across restarts. Load
// returns nil with no error when nothing is stored.
type CredentialStore interface {
	Load() (*Credentials, error)
	Save(creds Credentials) error
	Clear() error
}

// SessionStore tracks the authentication state and implements
// TokenSource for the client. The authenticated flag is derived from
// the presence of an access token, never tracked independently.
type SessionStore struct {
	client *Client
	creds  CredentialStore

	mu           sync.Mutex
	user         *User
	accessToken  string
	refreshToken string
	err          string
	loading      bool
}

// NewSessionStore creates a session store and registers it as the
// client's token source. The credential store may be nil, in which
// case sessions do not survive restarts.
func NewSessionStore(client *Client, creds CredentialStore) *SessionStore {
	s := &SessionStore{client: client, creds: creds}
	client.SetTokenSource(s)
	return s
}

// Token returns the held access token, or "" when unauthenticated.
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// Clear drops the session locally: token, user and persisted
// credentials. It is called by the client on a 401 response and by
// Logout.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.mu.Unlock()
	if s.creds != nil {
		_ = s.creds.Clear()
	}
}

// Authenticated reports whether a session token is held.
func (s *SessionStore) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != ""
}

// User returns the authenticated user, or nil.
func (s *SessionStore) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Err returns the message of the last failed auth operation.
func (s *SessionStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Loading reports whether an auth operation is in progress.
func (s *SessionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Initialize restores a persisted session, if any. A missing or
// unreadable credential file leaves the store unauthenticated.
func (s *SessionStore) Initialize() {
	if s.creds == nil {
		return
	}
	stored, err := s.creds.Load()
	if err != nil || stored == nil || stored.AccessToken == "" {
		return
	}
	s.mu.Lock()
	s.accessToken = stored.AccessToken
	s.refreshToken = stored.RefreshToken
	if stored.Email != "" {
		s.user = &User{
			ID:       stored.UserID,
			Email:    stored.Email,
			Username: stored.Username,
		}
	}
	s.mu.Unlock()
}

// Login authenticates with the server. The credentials travel
// form-encoded, with the email in the username field.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var resp authPayload
	if err := s.client.PostForm(ctx, "/auth/login", form, &resp); err != nil {
		s.recordError(err)
		return err
	}
	s.adopt(resp)
	return nil
}

// Register creates an account and starts a session with the returned
// tokens.
func (s *SessionStore) Register(ctx context.Context, email, username, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	body := map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}
	var resp authPayload
	if err := s.client.Post(ctx, "/auth/register", body, &resp); err != nil {
		s.recordError(err)
		return err
	}
	s.adopt(resp)
	return nil
}

// Logout ends the session: outstanding calls are aborted and all local
// state is dropped.
func (s *SessionStore) Logout() {
	s.client.CancelAll()
	s.Clear()
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// adopt installs a successful auth response as the current session.
func (s *SessionStore) adopt(resp authPayload) {
	s.mu.Lock()
	user := resp.User
	s.user = &user
	s.accessToken = resp.Token.AccessToken
	s.refreshToken = resp.Token.RefreshToken
	s.err = ""
	s.mu.Unlock()

	if s.creds != nil {
		_ = s.creds.Save(Credentials{
			AccessToken:  resp.Token.AccessToken,
			RefreshToken: resp.Token.RefreshToken,
			UserID:       resp.User.ID,
			Email:        resp.User.Email,
			Username:     resp.User.Username,
		})
	}
}

func (s *SessionStore) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !IsCanceled(err) {
		s.err = err.Error()
	}
}

func (s *SessionStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// FileCredentialStore persists credentials as a JSON file.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore creates a store writing to path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Load reads the stored credentials. A missing file is not an error.
func (f *FileCredentialStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Save writes the credentials, creating parent directories as needed.
func (f *FileCredentialStore) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

// Clear removes the credential file.
func (f *FileCredentialStore) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryCredentialStore keeps credentials in memory, for tests and for
// sessions that should not outlive the process.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds *Credentials
}

// Load returns the stored credentials, or nil.
func (m *MemoryCredentialStore) Load() (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, nil
	}
	c := *m.creds
	return &c, nil
}

// Save stores a copy of the credentials.
func (m *MemoryCredentialStore) Save(creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = &creds
	return nil
}

// Clear drops the stored credentials.
func (m *MemoryCredentialStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}
