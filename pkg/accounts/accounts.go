// Package accounts keeps named API credentials and which one is current.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrNoAccount    = errors.New("no account configured")
	ErrTokenExpired = errors.New("access token expired")
)

// AuthType is how a credential authenticates.
type AuthType string

const (
	AuthOAuth2 AuthType = "oauth2"
	AuthBearer AuthType = "bearer"
)

// Credential is the token material for one account.
type Credential struct {
	Type         AuthType   `json:"type"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether an oauth2 token has passed its expiry. App-only
// bearer tokens never expire.
func (c Credential) Expired(now time.Time) bool {
	return c.Type == AuthOAuth2 && c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

func (c Credential) validate() error {
	switch c.Type {
	case AuthOAuth2, AuthBearer:
	default:
		return fmt.Errorf("unknown auth type %q", c.Type)
	}
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("token is required")
	}
	return nil
}

// Account is a named credential.
type Account struct {
	Name    string
	Current bool
	Credential
}

type document struct {
	Current  string                `json:"current,omitempty"`
	Accounts map[string]Credential `json:"accounts"`
}

// Store is a JSON accounts file. It is read and rewritten on every operation.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// SetClock replaces the clock used for expiry checks.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Path returns the accounts file location.
func (s *Store) Path() string { return s.path }

func (s *Store) load() (*document, error) {
	doc := &document{Accounts: map[string]Credential{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse accounts file %s: %w", s.path, err)
	}
	if doc.Accounts == nil {
		doc.Accounts = map[string]Credential{}
	}
	return doc, nil
}

func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".accounts-*.json")
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write accounts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write accounts file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}
	return nil
}

// Add stores or replaces a credential. The first account added becomes current.
func (s *Store) Add(name string, cred Credential) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("account name is required")
	}
	if err := cred.validate(); err != nil {
		return fmt.Errorf("account %s: %w", name, err)
	}

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Accounts[name] = cred
	if doc.Current == "" {
		doc.Current = name
	}
	return s.save(doc)
}

// Use makes name the current account.
func (s *Store) Use(name string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Accounts[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNoAccount, name)
	}
	doc.Current = name
	return s.save(doc)
}

// Remove deletes an account. Removing the current account leaves none current.
func (s *Store) Remove(name string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Accounts[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNoAccount, name)
	}
	delete(doc.Accounts, name)
	if doc.Current == name {
		doc.Current = ""
	}
	return s.save(doc)
}

// List returns all accounts sorted by name.
func (s *Store) List() ([]Account, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(doc.Accounts))
	for name, cred := range doc.Accounts {
		out = append(out, Account{Name: name, Current: name == doc.Current, Credential: cred})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Current resolves the current account's credential.
func (s *Store) Current() (Account, error) {
	doc, err := s.load()
	if err != nil {
		return Account{}, err
	}
	if doc.Current == "" {
		return Account{}, fmt.Errorf("%w: run 'xcli accounts add' first", ErrNoAccount)
	}
	cred, ok := doc.Accounts[doc.Current]
	if !ok {
		return Account{}, fmt.Errorf("%w: current account %q is missing", ErrNoAccount, doc.Current)
	}
	if cred.Expired(s.now()) {
		return Account{}, fmt.Errorf("%w: account %q expired at %s, re-authenticate with 'xcli accounts add'",
			ErrTokenExpired, doc.Current, cred.ExpiresAt.Format(time.RFC3339))
	}
	return Account{Name: doc.Current, Current: true, Credential: cred}, nil
}

// Token resolves the bearer token to send, preferring an explicit override.
func (s *Store) Token(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	acct, err := s.Current()
	if err != nil {
		return "", err
	}
	return acct.Token, nil
}
