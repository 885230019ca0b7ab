// Package repotest provides in-memory implementations of the repo
// interfaces for tests. Behavior mirrors the bun implementations:
// uniqueness errors come from the same sentinels and expired sessions
// are invisible to reads.
package repotest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/finza-app/finza/pkg/db/repo"
	"github.com/google/uuid"
)

type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repo.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return nil
	}
	user.UpdatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// Delete removes a user, simulating account deletion behind a live
// credential.
func (s *UserStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

type accountKey struct {
	provider string
	id       string
}

type AccountStore struct {
	mu       sync.Mutex
	users    *UserStore
	accounts map[accountKey]*models.Account
}

func NewAccountStore(users *UserStore) *AccountStore {
	return &AccountStore{users: users, accounts: make(map[accountKey]*models.Account)}
}

func (s *AccountStore) FindByProvider(ctx context.Context, provider, providerAccountID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountKey{provider, providerAccountID}]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *AccountStore) Link(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := accountKey{account.Provider, account.ProviderAccountID}
	if _, ok := s.accounts[key]; ok {
		return repo.ErrAccountExists
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	cp := *account
	s.accounts[key] = &cp
	return nil
}

func (s *AccountStore) CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	s.mu.Lock()
	key := accountKey{account.Provider, account.ProviderAccountID}
	if _, ok := s.accounts[key]; ok {
		s.mu.Unlock()
		return repo.ErrAccountExists
	}
	s.mu.Unlock()

	// Mirrors the bun transaction: an email conflict adopts the
	// existing row instead of failing, then the link insert decides.
	if err := s.users.Create(ctx, user); err != nil {
		if err != repo.ErrEmailTaken {
			return err
		}
		existing, err := s.users.FindByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		*user = *existing
	}
	account.UserID = user.ID
	return s.Link(ctx, account)
}

type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*models.Session)}
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	cp := *session
	s.sessions[session.TokenHash] = &cp
	return nil
}

func (s *SessionStore) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok || !sess.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *SessionStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

func (s *SessionStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, hash)
		}
	}
	return nil
}

// Count reports the live (unexpired) session count.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.ExpiresAt.After(time.Now()) {
			n++
		}
	}
	return n
}

var (
	_ repo.UserStore    = (*UserStore)(nil)
	_ repo.AccountStore = (*AccountStore)(nil)
	_ repo.SessionStore = (*SessionStore)(nil)
)
